package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ReconnectClaims binds a reconnect bearer token to one participant in one
// room. These claims are issued and verified by this server alone — no
// external JWKS or identity provider is involved.
type ReconnectClaims struct {
	PersistentId string `json:"pid"`
	RoomCode     string `json:"room"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies self-issued HS256 reconnect tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer around the validated RECONNECT_TOKEN_SECRET.
// ttl bounds how long a client may present the token before it must reconnect
// and receive a fresh one.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a token for a (persistentId, roomCode, role) triple. The router
// issues it when a connection binds to a room and returns it in the
// room_created/room_joined payload.
func (i *TokenIssuer) Issue(persistentId, roomCode, role string) (string, error) {
	now := time.Now()
	claims := ReconnectClaims{
		PersistentId: persistentId,
		RoomCode:     roomCode,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses and verifies a reconnect token, additionally asserting it
// belongs to the room named by roomCode.
func (i *TokenIssuer) Validate(tokenString, roomCode string) (*ReconnectClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ReconnectClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse reconnect token: %w", err)
	}

	claims, ok := token.Claims.(*ReconnectClaims)
	if !ok || !token.Valid {
		return nil, errors.New("reconnect token is invalid")
	}
	if claims.RoomCode != roomCode {
		return nil, errors.New("reconnect token does not match room")
	}

	return claims, nil
}
