// Package analytics appends judged-answer events to a local JSON-lines file
// for offline analysis. Grounded on the teacher's bus.Service "never block
// the caller, log and swallow" posture used for Redis publish failures
// (internal/v1/bus/redis.go's Publish) — a dropped analytics line is never a
// reason to fail the room operation that produced it.
package analytics

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/brightloop/quizarena/internal/v1/logging"
	"github.com/brightloop/quizarena/internal/v1/metrics"
	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"go.uber.org/zap"
)

// Sink appends one JSON object per line to the file opened by Open. Safe for concurrent use
// from multiple room executor goroutines.
type Sink struct {
	mu   sync.Mutex
	file *os.File
}

// Open creates (or appends to) the analytics file at path.
func Open(path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Sink{file: f}, nil
}

// RecordAnswer implements quizroom.AnalyticsSink.
func (s *Sink) RecordAnswer(event quizroom.AnswerEvent) {
	line, err := json.Marshal(event)
	if err != nil {
		s.fail(err)
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	_, err = s.file.Write(line)
	s.mu.Unlock()
	if err != nil {
		s.fail(err)
	}
}

func (s *Sink) fail(err error) {
	metrics.AnalyticsAppendFailures.Inc()
	logging.Warn(context.Background(), "analytics sink append failed", zap.Error(err))
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// ReadGame re-reads the sink's file from disk and returns every recorded
// event for roomCode, in append order. Used by the `/api/analytics/game/:code`
// mirror endpoint. It is a full-file scan of the append-only file; nothing
// truncates that file, so the scan grows with every recorded event.
func ReadGame(path, roomCode string) ([]quizroom.AnswerEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []quizroom.AnswerEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event quizroom.AnswerEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.RoomCode == roomCode {
			out = append(out, event)
		}
	}
	return out, scanner.Err()
}
