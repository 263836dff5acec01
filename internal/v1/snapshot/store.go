// Package snapshot persists and restores in-flight rooms across process
// restarts: a periodic full-state dump to a single JSON file, loaded once at
// startup. Grounded on the teacher's bus.Service "fail open, log and
// continue" posture (internal/v1/bus/redis.go's Publish) applied to local
// disk I/O instead of a Redis channel — persistence is best-effort, never a
// reason to refuse a room mutation.
package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/brightloop/quizarena/internal/v1/logging"
	"github.com/brightloop/quizarena/internal/v1/metrics"
	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"go.uber.org/zap"
)

// Store writes/reads the single-file room snapshot at Path.
type Store struct {
	Path string
}

// New builds a Store rooted at path. The parent directory is created by Save.
func New(path string) *Store {
	return &Store{Path: path}
}

// Save atomically overwrites the snapshot file with rooms. Failures are
// logged and counted, never returned to a caller that can't usefully react —
// a failed periodic save just means the next tick tries again.
func (s *Store) Save(rooms []quizroom.RoomSnapshot) {
	start := time.Now()
	defer func() { metrics.SnapshotDuration.Observe(time.Since(start).Seconds()) }()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		s.fail("mkdir", err)
		return
	}

	data, err := json.Marshal(rooms)
	if err != nil {
		s.fail("marshal", err)
		return
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.fail("write", err)
		return
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		s.fail("rename", err)
		return
	}
}

// Load reads the snapshot file, discarding rooms whose SavedAt is older than
// staleAge (§10: "discard rooms older than 24h"). Returns an empty slice, not
// an error, when the file is absent — a first boot has nothing to recover.
func (s *Store) Load(staleAge time.Duration) []quizroom.RoomSnapshot {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.fail("read", err)
		}
		return nil
	}

	var rooms []quizroom.RoomSnapshot
	if err := json.Unmarshal(data, &rooms); err != nil {
		s.fail("unmarshal", err)
		return nil
	}

	now := time.Now()
	fresh := rooms[:0]
	var discarded int
	for _, r := range rooms {
		if now.Sub(r.SavedAt) > staleAge {
			discarded++
			continue
		}
		fresh = append(fresh, r)
	}
	if discarded > 0 {
		logging.Info(context.Background(), "discarded stale room snapshots", zap.Int("count", discarded))
	}
	return fresh
}

func (s *Store) fail(op string, err error) {
	metrics.SnapshotFailures.WithLabelValues(op).Inc()
	logging.Warn(context.Background(), "snapshot store operation failed", zap.String("operation", op), zap.Error(err))
}

// RunPeriodicSave calls collect and writes its result every interval until
// ctx is cancelled. Intended to run in its own goroutine from cmd/server.
func (s *Store) RunPeriodicSave(ctx context.Context, interval time.Duration, collect func() []quizroom.RoomSnapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Save(collect())
			return
		case <-ticker.C:
			s.Save(collect())
		}
	}
}
