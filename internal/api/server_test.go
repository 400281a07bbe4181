package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scoutagent/scout/internal/config"
	"github.com/scoutagent/scout/internal/history"
	"github.com/scoutagent/scout/internal/llm"
	"github.com/scoutagent/scout/internal/session"
)

type stubClient struct {
	reply string
	err   error
}

func (c *stubClient) Chat(ctx context.Context, model string, messages []llm.Message, tools []map[string]any) (*llm.ChatResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &llm.ChatResponse{
		Message: llm.Message{Role: "assistant", Content: c.reply},
		Done:    true,
	}, nil
}

func (c *stubClient) Ping(ctx context.Context) error { return nil }

func newTestServer(t *testing.T, client llm.Client, store history.Store, token string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.BearerToken = token

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager, err := session.NewManager(cfg, client, store, logger)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewServer(cfg, manager, store, logger)
}

func postAgent(t *testing.T, handler http.Handler, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/agent", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAgentEndpoint(t *testing.T) {
	t.Parallel()

	store := history.NewMemStore()
	srv := newTestServer(t, &stubClient{reply: "the answer"}, store, "secret")
	handler := srv.Handler()

	rec := postAgent(t, handler, "secret", `{"query":"hello","session_id":"s1","user_id":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp AgentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Message != "the answer" {
		t.Errorf("response = %+v", resp)
	}

	entries, _ := store.Fetch(context.Background(), "s1", 0)
	if len(entries) != 2 {
		t.Errorf("persisted entries = %d, want 2", len(entries))
	}
}

func TestAgentEndpointModelFailure(t *testing.T) {
	t.Parallel()

	store := history.NewMemStore()
	srv := newTestServer(t, &stubClient{err: errors.New("model down")}, store, "secret")

	rec := postAgent(t, srv.Handler(), "secret", `{"query":"hello","session_id":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp AgentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Message != session.ApologyMessage {
		t.Errorf("message = %q", resp.Message)
	}

	// Both the question and the apology landed in the transcript.
	entries, _ := store.Fetch(context.Background(), "s1", 0)
	if len(entries) != 2 {
		t.Fatalf("persisted entries = %d, want 2", len(entries))
	}
	if errMeta, _ := entries[1].Metadata["error"].(string); !strings.Contains(errMeta, "model down") {
		t.Errorf("apology metadata = %v", entries[1].Metadata)
	}
}

func TestAgentEndpointValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubClient{reply: "x"}, history.NewMemStore(), "secret")
	handler := srv.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"missing query", `{"session_id":"s1"}`},
		{"missing session", `{"query":"hello"}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		rec := postAgent(t, handler, "secret", tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
		}
	}
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()

	store := history.NewMemStore()
	srv := newTestServer(t, &stubClient{reply: "x"}, store, "secret")
	handler := srv.Handler()

	for _, token := range []string{"", "wrong"} {
		rec := postAgent(t, handler, token, `{"query":"hello","session_id":"s1"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, rec.Code)
		}
	}

	// Rejected requests must not touch the store.
	entries, _ := store.Fetch(context.Background(), "s1", 0)
	if len(entries) != 0 {
		t.Errorf("store has %d entries after rejected requests", len(entries))
	}
}

func TestBearerAuthUnconfigured(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubClient{reply: "x"}, history.NewMemStore(), "")

	rec := postAgent(t, srv.Handler(), "anything", `{"query":"hello","session_id":"s1"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when no token is configured", rec.Code)
	}
}

func TestMessagesEndpoint(t *testing.T) {
	t.Parallel()

	store := history.NewMemStore()
	srv := newTestServer(t, &stubClient{reply: "the answer"}, store, "secret")
	handler := srv.Handler()

	// Seed via the agent endpoint.
	postAgent(t, handler, "secret", `{"query":"hello","session_id":"s1"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/s1", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp MessagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Count != 2 || len(resp.Messages) != 2 {
		t.Fatalf("count = %d, messages = %d", resp.Count, len(resp.Messages))
	}
	if resp.Messages[0].Type != history.TypeHuman || resp.Messages[0].Content != "hello" {
		t.Errorf("messages[0] = %+v", resp.Messages[0])
	}
	if resp.Messages[1].Type != history.TypeAI || resp.Messages[1].Content != "the answer" {
		t.Errorf("messages[1] = %+v", resp.Messages[1])
	}
}

func TestMessagesEndpointUnknownSession(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubClient{reply: "x"}, history.NewMemStore(), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/messages/nobody", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp MessagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Count)
	}
}

func TestHealthNoAuth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubClient{reply: "x"}, history.NewMemStore(), "secret")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubClient{reply: "x"}, history.NewMemStore(), "secret")

	req := httptest.NewRequest(http.MethodOptions, "/api/agent", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS headers")
	}
}
