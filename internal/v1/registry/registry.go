// Package registry maps room codes to rooms: creation, lookup, eviction, and
// the periodic stale-room sweep.
package registry

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/brightloop/quizarena/internal/v1/logging"
	"github.com/brightloop/quizarena/internal/v1/metrics"
	"go.uber.org/zap"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

// Room is the subset of room state the registry needs to run its sweep; the
// quizroom package's *Room satisfies this.
type Room interface {
	Code() string
	LastActivity() time.Time
	GMDisconnectedSince() (time.Time, bool)
}

// stopper is implemented by rooms that own a background executor goroutine
// which must be halted on eviction. quizroom.Room satisfies this, but the
// sweep works against any Room so tests can use lighter fakes.
type stopper interface {
	Stop()
}

// Registry owns the live code -> Room mapping.
type Registry struct {
	mu              sync.RWMutex
	rooms           map[string]Room
	staleRoomAge    time.Duration
	gmSweepDeadline time.Duration
}

// New builds an empty Registry. staleRoomAge and gmSweepDeadline parameterize
// the stale sweep (spec: 24h inactivity, ~3min GM-disconnected safety net).
func New(staleRoomAge, gmSweepDeadline time.Duration) *Registry {
	return &Registry{
		rooms:           make(map[string]Room),
		staleRoomAge:    staleRoomAge,
		gmSweepDeadline: gmSweepDeadline,
	}
}

// NewCode mints a fresh, non-colliding 6-character uppercase alphanumeric
// room code. Caller must hold no lock; New code is checked under the
// registry's own lock.
func (r *Registry) NewCode() string {
	for {
		code := randomCode()
		r.mu.RLock()
		_, exists := r.rooms[code]
		r.mu.RUnlock()
		if !exists {
			return code
		}
	}
}

func randomCode() string {
	buf := make([]byte, codeLength)
	_, _ = rand.Read(buf)
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}

// Put registers a newly created room under its code. Returns false if the
// code is already taken (caller should treat this as a reclaim case instead).
func (r *Registry) Put(room Room) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rooms[room.Code()]; exists {
		return false
	}
	r.rooms[room.Code()] = room
	metrics.ActiveRooms.Set(float64(len(r.rooms)))
	return true
}

// Lookup returns the room for code, if any.
func (r *Registry) Lookup(code string) (Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

// Remove evicts a room by code, stopping its executor if it owns one.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	room, ok := r.rooms[code]
	delete(r.rooms, code)
	metrics.ActiveRooms.Set(float64(len(r.rooms)))
	r.mu.Unlock()
	if ok {
		if s, ok := room.(stopper); ok {
			s.Stop()
		}
	}
}

// ForEach calls fn for every live room. fn must not mutate the registry.
func (r *Registry) ForEach(fn func(Room)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		fn(room)
	}
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// RunStaleSweep blocks, evicting rooms past the stale-age or GM-disconnect
// deadline every interval, until ctx is cancelled. Intended to run in its own
// goroutine from cmd/server/main.go.
func (r *Registry) RunStaleSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce()
		}
	}
}

func (r *Registry) sweepOnce() {
	now := time.Now()
	var stale []string

	r.mu.RLock()
	for code, room := range r.rooms {
		if now.Sub(room.LastActivity()) > r.staleRoomAge {
			stale = append(stale, code)
			continue
		}
		if since, disconnected := room.GMDisconnectedSince(); disconnected && now.Sub(since) > r.gmSweepDeadline {
			stale = append(stale, code)
		}
	}
	r.mu.RUnlock()

	if len(stale) == 0 {
		return
	}

	r.mu.Lock()
	evicted := make([]Room, 0, len(stale))
	for _, code := range stale {
		if room, ok := r.rooms[code]; ok {
			evicted = append(evicted, room)
		}
		delete(r.rooms, code)
	}
	metrics.ActiveRooms.Set(float64(len(r.rooms)))
	r.mu.Unlock()

	for _, room := range evicted {
		if s, ok := room.(stopper); ok {
			s.Stop()
		}
	}

	logging.Info(context.Background(), "stale room sweep evicted rooms", zap.Int("count", len(stale)), zap.Strings("codes", stale))
}
