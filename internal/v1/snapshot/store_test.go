package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad_RoundTrips(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "rooms.snapshot.json"))

	rooms := []quizroom.RoomSnapshot{
		{Code: "ABC123", GMPersistentId: "GM-1", SavedAt: time.Now()},
		{Code: "XYZ789", GMPersistentId: "GM-2", SavedAt: time.Now()},
	}
	s.Save(rooms)

	loaded := s.Load(24 * time.Hour)
	require.Len(t, loaded, 2)
	codes := []string{loaded[0].Code, loaded[1].Code}
	assert.ElementsMatch(t, []string{"ABC123", "XYZ789"}, codes)
}

func TestLoad_MissingFileReturnsNilNotError(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"))
	loaded := s.Load(24 * time.Hour)
	assert.Nil(t, loaded)
}

func TestLoad_DiscardsStaleEntries(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "rooms.snapshot.json"))

	s.Save([]quizroom.RoomSnapshot{
		{Code: "FRESH1", SavedAt: time.Now()},
		{Code: "STALE1", SavedAt: time.Now().Add(-48 * time.Hour)},
	})

	loaded := s.Load(24 * time.Hour)
	require.Len(t, loaded, 1)
	assert.Equal(t, "FRESH1", loaded[0].Code)
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "rooms.snapshot.json")
	s := New(path)
	s.Save([]quizroom.RoomSnapshot{{Code: "ABC123", SavedAt: time.Now()}})

	loaded := s.Load(24 * time.Hour)
	require.Len(t, loaded, 1)
}
