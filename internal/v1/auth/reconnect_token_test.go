package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer("this-is-a-very-long-secret-key-for-testing", time.Hour)

	token, err := issuer.Issue("P-abc", "ABC123", RolePlayer)
	require.NoError(t, err)

	claims, err := issuer.Validate(token, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "P-abc", claims.PersistentId)
	assert.Equal(t, "ABC123", claims.RoomCode)
	assert.Equal(t, RolePlayer, claims.Role)
}

func TestTokenIssuer_RejectsRoomMismatch(t *testing.T) {
	issuer := NewTokenIssuer("this-is-a-very-long-secret-key-for-testing", time.Hour)

	token, err := issuer.Issue("P-abc", "ABC123", RolePlayer)
	require.NoError(t, err)

	_, err = issuer.Validate(token, "OTHER1")
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("this-is-a-very-long-secret-key-for-testing", -time.Second)

	token, err := issuer.Issue("P-abc", "ABC123", RolePlayer)
	require.NoError(t, err)

	_, err = issuer.Validate(token, "ABC123")
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("this-is-a-very-long-secret-key-for-testing", time.Hour)
	other := NewTokenIssuer("a-totally-different-secret-key-value-here", time.Hour)

	token, err := issuer.Issue("P-abc", "ABC123", RolePlayer)
	require.NoError(t, err)

	_, err = other.Validate(token, "ABC123")
	assert.Error(t, err)
}
