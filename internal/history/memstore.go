package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scoutagent/scout/internal/conversation"
)

// MemStore is an in-memory Store for the interactive chat loop and
// tests. Sessions live only as long as the process.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string][]Entry
}

// NewMemStore builds an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{sessions: map[string][]Entry{}}
}

// Fetch returns the most recent limit entries, oldest first.
func (s *MemStore) Fetch(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sessions[sessionID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Append stores one transcript turn.
func (s *MemStore) Append(ctx context.Context, sessionID string, turn conversation.Turn, metadata map[string]any) (*Entry, error) {
	typ, err := entryType(turn)
	if err != nil {
		return nil, err
	}

	e := Entry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Type:      typ,
		Content:   turn.Content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[sessionID] = append(s.sessions[sessionID], e)
	s.mu.Unlock()
	return &e, nil
}

// RecordToolCall is a no-op: the in-memory store keeps no audit trail.
func (s *MemStore) RecordToolCall(ctx context.Context, sessionID string, call, result conversation.Turn) error {
	return nil
}

// Close is a no-op.
func (s *MemStore) Close() error { return nil }
