// Package history persists session transcripts. Only user and
// assistant text turns form the durable transcript; tool traffic is
// recorded separately for auditing and never returned by Fetch.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/scoutagent/scout/internal/conversation"
)

// Entry types, matching the stored transcript format.
const (
	TypeHuman = "human"
	TypeAI    = "ai"
)

// Entry is one persisted transcript row.
type Entry struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Turn converts a stored entry back into a conversation turn.
func (e Entry) Turn() conversation.Turn {
	if e.Type == TypeHuman {
		return conversation.User(e.Content)
	}
	return conversation.Assistant(e.Content)
}

// entryType maps a turn kind onto the stored type column.
func entryType(t conversation.Turn) (string, error) {
	switch t.Kind {
	case conversation.KindUser:
		return TypeHuman, nil
	case conversation.KindAssistant:
		return TypeAI, nil
	default:
		return "", fmt.Errorf("turn kind %q does not persist to the transcript", t.Kind)
	}
}

// Store persists and retrieves session transcripts.
type Store interface {
	// Fetch returns up to limit of the most recent transcript entries
	// for a session, oldest first. An unknown session yields an empty
	// slice, not an error. limit <= 0 means no limit.
	Fetch(ctx context.Context, sessionID string, limit int) ([]Entry, error)

	// Append stores one user or assistant turn. Passing a tool turn is
	// an error.
	Append(ctx context.Context, sessionID string, turn conversation.Turn, metadata map[string]any) (*Entry, error)

	// RecordToolCall stores one resolved tool invocation for auditing.
	// call must be a tool_call turn and result its tool_result.
	RecordToolCall(ctx context.Context, sessionID string, call, result conversation.Turn) error

	// Close releases the backing resources.
	Close() error
}

// Turns converts fetched entries into conversation turns, oldest first.
func Turns(entries []Entry) []conversation.Turn {
	turns := make([]conversation.Turn, len(entries))
	for i, e := range entries {
		turns[i] = e.Turn()
	}
	return turns
}
