package auth

import (
	"errors"

	"github.com/google/uuid"
)

// HandshakeParams is what a new WebSocket connection presents before it is
// bound to a room: either cached reconnect state or fresh join-screen input.
type HandshakeParams struct {
	PersistentId        string
	DisplayName         string
	IsGameMaster        bool
	IsInitialConnection bool
	Reconnected         bool
}

// ErrPlayerNameRequired is returned by Resolve when the acceptance policy rejects
// a connection that supplied neither a name nor any of the other accepted signals.
var ErrPlayerNameRequired = errors.New("player name required")

// Resolve computes (persistentId, role, displayName) for a new connection
// per the identity layer's minting and acceptance rules.
func Resolve(p HandshakeParams) (persistentId, role, displayName string, err error) {
	switch {
	case p.IsGameMaster:
		// GM identity is per-session: a fresh id every connection, never reused
		// across GM sessions even if the same browser storage supplies one.
		persistentId = "GM-" + uuid.NewString()
		role = RoleGameMaster
		displayName = p.DisplayName
		if displayName == "" {
			displayName = "GameMaster"
		}
		return persistentId, role, displayName, nil

	case p.PersistentId != "":
		persistentId = p.PersistentId
		role = roleForPrefix(persistentId)
		return persistentId, role, p.DisplayName, nil

	case p.DisplayName != "":
		persistentId = "P-" + uuid.NewString()
		return persistentId, RolePlayer, p.DisplayName, nil
	}

	if p.IsInitialConnection || p.Reconnected {
		persistentId = "F-" + uuid.NewString()
		return persistentId, RoleFallback, "", nil
	}

	return "", "", "", ErrPlayerNameRequired
}

const (
	RoleGameMaster = "gm"
	RolePlayer     = "player"
	RoleFallback   = "fallback"
)

func roleForPrefix(persistentId string) string {
	switch {
	case hasPrefix(persistentId, "GM-"):
		return RoleGameMaster
	case hasPrefix(persistentId, "P-"):
		return RolePlayer
	default:
		return RoleFallback
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
