package httpapi

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/brightloop/quizarena/internal/v1/auth"
	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"github.com/brightloop/quizarena/internal/v1/recap"
	"github.com/brightloop/quizarena/internal/v1/registry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoomConfig() quizroom.RoomConfig {
	return quizroom.RoomConfig{
		GMDisconnectGrace:     time.Minute,
		PlayerDisconnectGrace: time.Minute,
		RoundFinalizeGrace:    time.Second,
	}
}

func newTestDeps(t *testing.T) (Deps, *quizroom.Hub, *auth.TokenIssuer) {
	t.Helper()
	reg := registry.New(24*time.Hour, 3*time.Minute)
	issuer := auth.NewTokenIssuer("test-secret-at-least-32-characters-long", time.Hour)
	hub := quizroom.NewHub(reg, testRoomConfig(), issuer, nil, []string{"http://localhost:3000"})
	archive := recap.New()

	return Deps{
		Hub:           hub,
		Recaps:        archive,
		AnalyticsPath: filepath.Join(t.TempDir(), "analytics.jsonl"),
	}, hub, issuer
}

func newTestRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, deps)
	return r
}

func TestRoomPlayers_RequiresBearerToken(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	r := newTestRouter(deps)

	req, _ := http.NewRequest(http.MethodGet, "/api/room/ABC123/players", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRoomPlayers_RejectsTokenForWrongRoom(t *testing.T) {
	deps, _, issuer := newTestDeps(t)
	r := newTestRouter(deps)

	token, err := issuer.Issue("P-1", "OTHERROOM", auth.RolePlayer)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/api/room/ABC123/players", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRoomPlayers_ValidTokenButUnknownRoom(t *testing.T) {
	deps, _, issuer := newTestDeps(t)
	r := newTestRouter(deps)

	token, err := issuer.Issue("P-1", "ABC123", auth.RolePlayer)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/api/room/ABC123/players", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListRecaps_EmptyByDefault(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	r := newTestRouter(deps)

	req, _ := http.NewRequest(http.MethodGet, "/api/recaps", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"recaps":[]}`, resp.Body.String())
}

func TestDebugRooms_EmptyByDefault(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	r := newTestRouter(deps)

	req, _ := http.NewRequest(http.MethodGet, "/debug/rooms", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"rooms":null}`, resp.Body.String())
}
