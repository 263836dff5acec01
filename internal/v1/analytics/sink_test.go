package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAnswerAndReadGame_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.jsonl")
	sink, err := Open(path)
	require.NoError(t, err)
	defer sink.Close()

	sink.RecordAnswer(quizroom.AnswerEvent{
		RoomCode:     "ABC123",
		RoundIndex:   0,
		PersistentId: "P-1",
		DisplayName:  "Alice",
		Evaluation:   quizroom.EvalCorrect,
		RecordedAt:   time.Now(),
	})
	sink.RecordAnswer(quizroom.AnswerEvent{
		RoomCode:     "OTHERROOM",
		PersistentId: "P-2",
		RecordedAt:   time.Now(),
	})
	sink.RecordAnswer(quizroom.AnswerEvent{
		RoomCode:     "ABC123",
		RoundIndex:   1,
		PersistentId: "P-1",
		Evaluation:   quizroom.EvalIncorrect,
		RecordedAt:   time.Now(),
	})

	events, err := ReadGame(path, "ABC123")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].RoundIndex)
	assert.Equal(t, 1, events[1].RoundIndex)
}

func TestReadGame_MissingFileReturnsNilNotError(t *testing.T) {
	events, err := ReadGame(filepath.Join(t.TempDir(), "absent.jsonl"), "ABC123")
	require.NoError(t, err)
	assert.Nil(t, events)
}

func TestReadGame_NoMatchingRoomReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.jsonl")
	sink, err := Open(path)
	require.NoError(t, err)
	defer sink.Close()

	sink.RecordAnswer(quizroom.AnswerEvent{RoomCode: "ABC123", RecordedAt: time.Now()})

	events, err := ReadGame(path, "NOPE000")
	require.NoError(t, err)
	assert.Empty(t, events)
}
