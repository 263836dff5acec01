// Package quizroom — hub.go
//
// Hub is the Event Dispatcher (§4.4): it owns the websocket upgrade, the
// room registry, and the routing of inbound events to the bound Room's
// operations. It also implements Broadcaster so Room never touches a
// socket directly.
package quizroom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/brightloop/quizarena/internal/v1/auth"
	"github.com/brightloop/quizarena/internal/v1/logging"
	"github.com/brightloop/quizarena/internal/v1/metrics"
	"github.com/brightloop/quizarena/internal/v1/registry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RateLimiter is the subset of ratelimit.RateLimiter the hub depends on.
type RateLimiter interface {
	CheckConnect(ctx context.Context, ip string) bool
	CheckEvent(ctx context.Context, connectionId string) bool
}

// Hub wires the websocket transport to the Room Registry and implements
// Broadcaster for every live Room.
type Hub struct {
	registry       *registry.Registry
	roomCfg        RoomConfig
	issuer         *auth.TokenIssuer
	limiter        RateLimiter
	allowedOrigins []string
	analytics      AnalyticsSink
	recaps         RecapSink

	mu      sync.RWMutex
	clients map[string]*Client // keyed by connectionId
}

// NewHub constructs a Hub bound to a Room Registry.
func NewHub(reg *registry.Registry, roomCfg RoomConfig, issuer *auth.TokenIssuer, limiter RateLimiter, allowedOrigins []string) *Hub {
	return &Hub{
		registry:       reg,
		roomCfg:        roomCfg,
		issuer:         issuer,
		limiter:        limiter,
		allowedOrigins: allowedOrigins,
		clients:        make(map[string]*Client),
	}
}

// WithAnalyticsSink and WithRecapSink attach optional write-only side
// channels applied to every room this hub creates or restores from here on.
func (h *Hub) WithAnalyticsSink(sink AnalyticsSink) *Hub {
	h.analytics = sink
	return h
}

func (h *Hub) WithRecapSink(sink RecapSink) *Hub {
	h.recaps = sink
	return h
}

func (h *Hub) wireRoom(room *Room) {
	if h.analytics != nil {
		room.SetAnalyticsSink(h.analytics)
	}
	if h.recaps != nil {
		room.SetRecapSink(h.recaps)
	}
}

// BroadcastRoom implements Broadcaster.
func (h *Hub) BroadcastRoom(roomCode string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.roomCode == roomCode {
			c.enqueueSend(data)
		}
	}
}

// SendTo implements Broadcaster.
func (h *Hub) SendTo(connectionId string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	c, ok := h.clients[connectionId]
	h.mu.RUnlock()
	if ok {
		c.enqueueSend(data)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.connectionId] = c
	h.mu.Unlock()
	metrics.IncConnection()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.connectionId)
	h.mu.Unlock()
	metrics.DecConnection()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.allowedOrigins {
		allowedURL, err := url.Parse(allowed)
		if err != nil {
			continue
		}
		if originURL.Scheme == allowedURL.Scheme && originURL.Host == allowedURL.Host {
			return true
		}
	}
	return false
}

// ServeWs upgrades the HTTP request to a websocket connection, resolves the
// connecting participant's identity (§4.1), and starts its pump goroutines.
// Room binding happens lazily on the first create_room/join_room/rejoin_room
// event, per §4.4.
func (h *Hub) ServeWs(c *gin.Context) {
	if h.limiter != nil && !h.limiter.CheckConnect(c.Request.Context(), c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	upgrader.CheckOrigin = h.checkOrigin
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	params := auth.HandshakeParams{
		PersistentId:        c.Query("persistentId"),
		DisplayName:         c.Query("displayName"),
		IsGameMaster:        c.Query("isGameMaster") == "true",
		IsInitialConnection: c.Query("isInitialConnection") == "true",
		Reconnected:         c.Query("reconnected") == "true",
	}
	persistentId, role, displayName, err := auth.Resolve(params)
	if err != nil {
		msg, _ := json.Marshal(Message{Event: OutError, Payload: mustMarshal(map[string]string{"message": err.Error()})})
		conn.WriteMessage(websocket.TextMessage, msg)
		conn.Close()
		return
	}

	client := &Client{
		hub:          h,
		conn:         conn,
		send:         make(chan []byte, 256),
		connectionId: uuid.New().String(),
		persistentId: persistentId,
		displayName:  displayName,
		isGM:         role == auth.RoleGameMaster,
	}

	h.register(client)
	client.sendEvent(OutPersistentIdAssigned, map[string]string{"persistentId": persistentId})

	go client.writePump()
	go client.readPump()
}

// getOrCreateRoom looks up a room by code, creating one if absent and the
// caller is a GM (per §4.3's createRoom precondition). Looking up an
// existing room is a reclaim: it resets GM-disconnected state so the
// registry's stale sweep doesn't evict the room on a disconnect timestamp
// the reclaim just superseded.
func (h *Hub) getOrCreateRoom(ctx context.Context, code string, gmPersistentId string, isStreamerMode, isCommunityVotingMode, isPointsMode bool) (*Room, error) {
	if code != "" {
		if existing, ok := h.registry.Lookup(code); ok {
			room, ok := existing.(*Room)
			if !ok {
				return nil, ErrRoomNotFound
			}
			room.Submit(ctx, func(r *Room) error {
				r.setGMDisconnected(false)
				return nil
			})
			return room, nil
		}
	}

	if code == "" {
		code = h.registry.NewCode()
	}
	room := NewRoom(code, gmPersistentId, isStreamerMode, isCommunityVotingMode, isPointsMode, h.roomCfg, h)
	h.wireRoom(room)
	if !h.registry.Put(room) {
		room.Stop()
		return nil, newErr(KindConflict, "room code already exists")
	}
	metrics.ActiveRooms.Inc()
	return room, nil
}

// issueReconnectToken signs a bearer token binding (persistentId, roomCode,
// role), handed back once a connection is bound to a room so the HTTP
// mirror endpoints (§13) can authenticate without the client's socket.
func (h *Hub) issueReconnectToken(persistentId, roomCode, role string) string {
	if h.issuer == nil {
		return ""
	}
	token, err := h.issuer.Issue(persistentId, roomCode, role)
	if err != nil {
		return ""
	}
	return token
}

func (h *Hub) lookupRoom(code string) (*Room, bool) {
	r, ok := h.registry.Lookup(code)
	if !ok {
		return nil, false
	}
	room, ok := r.(*Room)
	return room, ok
}

// LookupRoom is the exported counterpart of lookupRoom, for the HTTP mirror
// surface (§13).
func (h *Hub) LookupRoom(code string) (*Room, bool) {
	return h.lookupRoom(code)
}

// ForEachRoom calls fn for every live room; used by the `/debug/rooms`
// mirror endpoint.
func (h *Hub) ForEachRoom(fn func(*Room)) {
	h.registry.ForEach(func(r registry.Room) {
		if room, ok := r.(*Room); ok {
			fn(room)
		}
	})
}

// Validator exposes the hub's token issuer for the HTTP mirror surface's
// bearer-auth middleware (§13).
func (h *Hub) Validator() *auth.TokenIssuer {
	return h.issuer
}

// RunStaleSweep delegates to the registry's periodic eviction sweep.
func (h *Hub) RunStaleSweep(ctx context.Context, interval time.Duration) {
	h.registry.RunStaleSweep(ctx, interval)
}

// CollectSnapshots exports every non-concluded room's durable state for the
// periodic snapshot write (§10). Each export runs on its own room's executor
// via Submit, since ExportSnapshot reads fields that are only safe to touch
// from inside run().
func (h *Hub) CollectSnapshots(ctx context.Context) []RoomSnapshot {
	var rooms []*Room
	h.registry.ForEach(func(r registry.Room) {
		if room, ok := r.(*Room); ok {
			rooms = append(rooms, room)
		}
	})

	out := make([]RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		var snap RoomSnapshot
		err := room.Submit(ctx, func(r *Room) error {
			if r.concluded {
				return nil
			}
			snap = r.ExportSnapshot()
			return nil
		})
		if err == nil && snap.Code != "" {
			out = append(out, snap)
		}
	}
	return out
}

// RestoreRooms rebuilds and registers rooms from previously saved snapshots,
// called once at startup before ServeWs starts accepting connections.
func (h *Hub) RestoreRooms(snaps []RoomSnapshot) {
	for _, snap := range snaps {
		room := RestoreRoom(snap, h.roomCfg, h)
		h.wireRoom(room)
		if !h.registry.Put(room) {
			room.Stop()
			continue
		}
		metrics.ActiveRooms.Inc()
	}
}
