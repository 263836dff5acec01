package quizroom

import (
	"sync"
	"time"
)

// recordingBroadcaster is a test double for Broadcaster that records every
// sent message instead of touching a real transport.
type recordingBroadcaster struct {
	mu        sync.Mutex
	broadcast []Message
	direct    map[string][]Message
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{direct: make(map[string][]Message)}
}

func (b *recordingBroadcaster) BroadcastRoom(roomCode string, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast = append(b.broadcast, msg)
}

func (b *recordingBroadcaster) SendTo(connectionId string, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.direct[connectionId] = append(b.direct[connectionId], msg)
}

func (b *recordingBroadcaster) events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.broadcast))
	for i, m := range b.broadcast {
		out[i] = m.Event
	}
	return out
}

func (b *recordingBroadcaster) lastDirectTo(connectionId string) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.direct[connectionId]
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

func testRoomConfig() RoomConfig {
	return RoomConfig{
		GMDisconnectGrace:     50 * time.Millisecond,
		PlayerDisconnectGrace: 50 * time.Millisecond,
		RoundFinalizeGrace:    10 * time.Millisecond,
	}
}

func newTestRoom(b *recordingBroadcaster, community, points bool) *Room {
	return NewRoom("ABC123", "GM-1", false, community, points, testRoomConfig(), b)
}
