// Package session persists a per-session event log as append-only JSON
// lines. The orchestrator records user messages, model responses, tool calls,
// and violations through the single Append method.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one logged entry.
type Event struct {
	Time time.Time      `json:"time"`
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Session appends events to a JSONL file named after the session id.
type Session struct {
	id     string
	mu     sync.Mutex
	file   *os.File
	logger *zap.Logger
}

// New creates a session log under dir. The file is created eagerly so a
// permission problem surfaces at startup rather than mid-turn.
func New(dir string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	path := filepath.Join(dir, id+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	return &Session{id: id, file: file, logger: logger}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Append writes one event. Logging failures are reported on the logger and
// otherwise swallowed; a broken session log must not break a turn.
func (s *Session) Append(eventType string, data map[string]any) {
	event := Event{Time: time.Now().UTC(), Type: eventType, Data: data}
	line, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("marshaling session event", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		s.logger.Warn("writing session event", zap.Error(err))
	}
}

// Close flushes and closes the log file.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
