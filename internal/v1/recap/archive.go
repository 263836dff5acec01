// Package recap archives concluded rooms' post-game recaps in memory so the
// HTTP mirror surface (§13) can serve them after the owning Room has been
// evicted from the registry.
package recap

import (
	"sort"
	"sync"
	"time"

	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"github.com/google/uuid"
)

// Entry is one archived recap, addressable by Id and by RoomCode.
type Entry struct {
	Id         string        `json:"id"`
	RoomCode   string        `json:"roomCode"`
	Recap      quizroom.Recap `json:"recap"`
	ArchivedAt time.Time     `json:"archivedAt"`
}

// Archive stores every concluded room's recap, implementing
// quizroom.RecapSink.
type Archive struct {
	mu      sync.RWMutex
	byId    map[string]Entry
	byRoom  map[string][]string // roomCode -> entry ids, oldest first
}

// New builds an empty Archive.
func New() *Archive {
	return &Archive{
		byId:   make(map[string]Entry),
		byRoom: make(map[string][]string),
	}
}

// ArchiveRecap implements quizroom.RecapSink.
func (a *Archive) ArchiveRecap(roomCode string, r quizroom.Recap) {
	entry := Entry{
		Id:         uuid.NewString(),
		RoomCode:   roomCode,
		Recap:      r,
		ArchivedAt: time.Now(),
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byId[entry.Id] = entry
	a.byRoom[roomCode] = append(a.byRoom[roomCode], entry.Id)
}

// List returns every archived recap, most recently archived first.
func (a *Archive) List() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Entry, 0, len(a.byId))
	for _, e := range a.byId {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArchivedAt.After(out[j].ArchivedAt) })
	return out
}

// Get returns one recap by its archive id.
func (a *Archive) Get(id string) (Entry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.byId[id]
	return e, ok
}

// ByRoom returns every recap archived for roomCode, oldest first (a room
// that was restarted and replayed may have archived more than one).
func (a *Archive) ByRoom(roomCode string) []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := a.byRoom[roomCode]
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.byId[id])
	}
	return out
}

// Round returns one round's recap within an archived entry, if present.
func (a *Archive) Round(id string, roundIndex int) (quizroom.RoundRecap, bool) {
	e, ok := a.Get(id)
	if !ok {
		return quizroom.RoundRecap{}, false
	}
	for _, round := range e.Recap.Rounds {
		if round.RoundIndex == roundIndex {
			return round, true
		}
	}
	return quizroom.RoundRecap{}, false
}
