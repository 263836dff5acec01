package recap

import (
	"testing"

	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecap() quizroom.Recap {
	return quizroom.Recap{
		Rounds: []quizroom.RoundRecap{
			{RoundIndex: 0, Question: quizroom.Question{ID: "q1", Text: "2+2?"}},
			{RoundIndex: 1, Question: quizroom.Question{ID: "q2", Text: "draw a cat"}},
		},
		WinnerPersistentId: "P-1",
	}
}

func TestArchiveRecap_RetrievableById(t *testing.T) {
	a := New()
	a.ArchiveRecap("ABC123", sampleRecap())

	entries := a.List()
	require.Len(t, entries, 1)

	entry, ok := a.Get(entries[0].Id)
	require.True(t, ok)
	assert.Equal(t, "ABC123", entry.RoomCode)
	assert.Equal(t, "P-1", entry.Recap.WinnerPersistentId)
}

func TestByRoom_ReturnsOldestFirst(t *testing.T) {
	a := New()
	a.ArchiveRecap("ABC123", sampleRecap())
	a.ArchiveRecap("ABC123", sampleRecap())
	a.ArchiveRecap("OTHERROOM", sampleRecap())

	entries := a.ByRoom("ABC123")
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "ABC123", e.RoomCode)
	}
}

func TestRound_ReturnsMatchingRoundIndex(t *testing.T) {
	a := New()
	a.ArchiveRecap("ABC123", sampleRecap())
	entries := a.List()
	require.Len(t, entries, 1)

	round, ok := a.Round(entries[0].Id, 1)
	require.True(t, ok)
	assert.Equal(t, "q2", round.Question.ID)

	_, ok = a.Round(entries[0].Id, 99)
	assert.False(t, ok)
}

func TestGet_UnknownIdNotFound(t *testing.T) {
	a := New()
	_, ok := a.Get("does-not-exist")
	assert.False(t, ok)
}
