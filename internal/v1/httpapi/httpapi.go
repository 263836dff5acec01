// Package httpapi exposes the read-side HTTP mirror of the room engine:
// debug introspection, recap/analytics retrieval, and the two bearer-gated
// socket mirrors named in §13 of SPEC_FULL.md. Grounded on the teacher's
// `cmd/v1/session/main.go` route-group wiring and its handler-closure-over-
// dependencies shape (no separate handler struct in the teacher either).
package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/brightloop/quizarena/internal/v1/analytics"
	"github.com/brightloop/quizarena/internal/v1/auth"
	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"github.com/brightloop/quizarena/internal/v1/recap"
	"github.com/gin-gonic/gin"
)

// Deps bundles the read-side dependencies the mirror routes need.
type Deps struct {
	Hub           *quizroom.Hub
	Recaps        *recap.Archive
	AnalyticsPath string
}

// Register wires every mirror route onto router.
func Register(router *gin.Engine, deps Deps) {
	router.GET("/debug/rooms", deps.debugRooms)

	recaps := router.Group("/api/recaps")
	{
		recaps.GET("", deps.listRecaps)
		recaps.GET("/:id", deps.getRecap)
		recaps.GET("/room/:code", deps.recapsByRoom)
		recaps.GET("/:id/round/:n", deps.recapRound)
	}

	router.GET("/api/analytics/game/:code", deps.analyticsForGame)

	room := router.Group("/api/room/:code")
	room.Use(deps.requireReconnectToken)
	{
		room.GET("/players", deps.roomPlayers)
		room.POST("/board", deps.updateBoard)
	}
}

func (d Deps) debugRooms(c *gin.Context) {
	var rooms []quizroom.DebugView
	d.Hub.ForEachRoom(func(r *quizroom.Room) {
		_ = r.Submit(c.Request.Context(), func(room *quizroom.Room) error {
			rooms = append(rooms, room.Debug())
			return nil
		})
	})
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (d Deps) listRecaps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"recaps": d.Recaps.List()})
}

func (d Deps) getRecap(c *gin.Context) {
	entry, ok := d.Recaps.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recap not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (d Deps) recapsByRoom(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"recaps": d.Recaps.ByRoom(c.Param("code"))})
}

func (d Deps) recapRound(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "round index must be an integer"})
		return
	}
	round, ok := d.Recaps.Round(c.Param("id"), n)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "round not found"})
		return
	}
	c.JSON(http.StatusOK, round)
}

func (d Deps) analyticsForGame(c *gin.Context) {
	events, err := analytics.ReadGame(d.AnalyticsPath, c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read analytics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// reconnectClaimsKey is the gin context key the bearer-auth middleware
// stashes validated claims under.
const reconnectClaimsKey = "reconnectClaims"

// requireReconnectToken replaces the spoofable `x-socket-id` header the
// REDESIGN FLAGS call out with the self-issued reconnect bearer token,
// scoped to the room named in the path (§13).
func (d Deps) requireReconnectToken(c *gin.Context) {
	issuer := d.Hub.Validator()
	if issuer == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reconnect token validation unavailable"})
		return
	}

	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	claims, err := issuer.Validate(token, c.Param("code"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired reconnect token"})
		return
	}

	c.Set(reconnectClaimsKey, claims)
	c.Next()
}

func claimsFrom(c *gin.Context) *auth.ReconnectClaims {
	v, ok := c.Get(reconnectClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.ReconnectClaims)
	return claims
}

func (d Deps) roomPlayers(c *gin.Context) {
	room, ok := d.Hub.LookupRoom(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	var players []quizroom.PlayerView
	err := room.Submit(c.Request.Context(), func(r *quizroom.Room) error {
		players = r.Players()
		return nil
	})
	if err != nil {
		c.JSON(http.StatusGone, gin.H{"error": "room no longer active"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}

type boardUpdateRequest struct {
	BoardData string `json:"boardData"`
}

func (d Deps) updateBoard(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing reconnect claims"})
		return
	}

	var body boardUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	room, ok := d.Hub.LookupRoom(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	err := room.Submit(c.Request.Context(), func(r *quizroom.Room) error {
		if claims.Role == auth.RoleGameMaster {
			return r.UpdateGMBoard(claims.PersistentId, body.BoardData)
		}
		return r.UpdateBoard(claims.PersistentId, body.BoardData)
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": quizroom.AsOpError(err).Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
