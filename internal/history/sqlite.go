package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/scoutagent/scout/internal/conversation"
)

// SQLiteStore persists transcripts in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewSQLiteStoreWithDB wraps an existing database connection.
func NewSQLiteStoreWithDB(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);

		CREATE TABLE IF NOT EXISTS tool_calls (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			call_id TEXT NOT NULL,
			tool_name TEXT NOT NULL,
			arguments TEXT,
			result TEXT,
			is_error INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tool_calls_session ON tool_calls(session_id, id);
	`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Fetch returns the most recent limit entries for a session, oldest
// first. UUIDv7 row ids sort in creation order, so ordering by id is
// ordering by time.
func (s *SQLiteStore) Fetch(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	query := `SELECT id, session_id, type, content, metadata, created_at
		FROM messages WHERE session_id = ? ORDER BY id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var metadata sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Type, &e.Content, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", e.ID, err)
			}
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	// Newest-first from the query; flip to oldest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Append stores one transcript turn.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, turn conversation.Turn, metadata map[string]any) (*Entry, error) {
	typ, err := entryType(turn)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	now := time.Now().UTC()

	var metadataJSON sql.NullString
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, type, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id.String(), sessionID, typ, turn.Content, metadataJSON, now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return &Entry{
		ID:        id.String(),
		SessionID: sessionID,
		Type:      typ,
		Content:   turn.Content,
		Metadata:  metadata,
		CreatedAt: now,
	}, nil
}

// RecordToolCall stores one resolved tool invocation in the audit
// table.
func (s *SQLiteStore) RecordToolCall(ctx context.Context, sessionID string, call, result conversation.Turn) error {
	if call.Kind != conversation.KindToolCall || result.Kind != conversation.KindToolResult {
		return fmt.Errorf("expected tool_call/tool_result pair, got %q/%q", call.Kind, result.Kind)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}

	var argsJSON sql.NullString
	if len(call.Args) > 0 {
		raw, err := json.Marshal(call.Args)
		if err != nil {
			return fmt.Errorf("encode arguments: %w", err)
		}
		argsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	isError := 0
	if result.IsError {
		isError = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tool_calls (id, session_id, call_id, tool_name, arguments, result, is_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id.String(), sessionID, call.CallID, call.ToolName, argsJSON, result.Content,
		isError, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert tool call: %w", err)
	}
	return nil
}

// ToolCallRecord is one audited tool invocation.
type ToolCallRecord struct {
	ID        string
	SessionID string
	CallID    string
	ToolName  string
	Args      map[string]any
	Result    string
	IsError   bool
	CreatedAt time.Time
}

// ToolCalls returns a session's audit trail, oldest first.
func (s *SQLiteStore) ToolCalls(ctx context.Context, sessionID string) ([]ToolCallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, call_id, tool_name, arguments, result, is_error, created_at
		FROM tool_calls WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch tool calls: %w", err)
	}
	defer rows.Close()

	var records []ToolCallRecord
	for rows.Next() {
		var r ToolCallRecord
		var args sql.NullString
		var isError int
		var createdAt string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.CallID, &r.ToolName, &args, &r.Result, &isError, &createdAt); err != nil {
			return nil, fmt.Errorf("scan tool call: %w", err)
		}
		if args.Valid && args.String != "" {
			if err := json.Unmarshal([]byte(args.String), &r.Args); err != nil {
				return nil, fmt.Errorf("decode arguments for %s: %w", r.ID, err)
			}
		}
		r.IsError = isError != 0
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
