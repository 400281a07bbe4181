package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// AgentRequest is the body of POST /api/agent.
type AgentRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
}

// AgentResponse is the body returned by POST /api/agent.
type AgentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleAgent runs one agent request against the configured agent
// kind. A failed run still answers 200: the user message was accepted
// and the apology persisted, so the client gets the apology with
// success=false.
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required", s.logger)
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required", s.logger)
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	kind, err := s.manager.DefaultKind()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "agent misconfigured", s.logger)
		return
	}

	meta := map[string]any{"request_id": req.RequestID}
	if req.UserID != "" {
		meta["user_id"] = req.UserID
	}

	s.logger.Info("agent request",
		"agent", kind.String(),
		"session_id", req.SessionID,
		"request_id", req.RequestID)

	reply, runErr := s.manager.Respond(r.Context(), kind, req.SessionID, req.Query, meta)
	if reply == "" && runErr != nil {
		// Nothing was persisted; this is an infrastructure failure.
		writeError(w, http.StatusInternalServerError, "request could not be processed", s.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AgentResponse{Success: runErr == nil, Message: reply}, s.logger)
}

// MessagesResponse is the body of GET /api/messages/{session_id}.
type MessagesResponse struct {
	Success   bool            `json:"success"`
	SessionID string          `json:"session_id"`
	Messages  []MessageRecord `json:"messages"`
	Count     int             `json:"count"`
}

// MessageRecord is one transcript row as served to clients.
type MessageRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// handleMessages lists the recent transcript for a session, oldest
// first. Unknown sessions return an empty list.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	entries, err := s.store.Fetch(r.Context(), sessionID, 0)
	if err != nil {
		s.logger.Error("message fetch failed", "session_id", sessionID, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, MessagesResponse{SessionID: sessionID, Messages: []MessageRecord{}}, s.logger)
		return
	}

	records := make([]MessageRecord, len(entries))
	for i, e := range entries {
		records[i] = MessageRecord{
			ID:        e.ID,
			Type:      e.Type,
			Content:   e.Content,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, MessagesResponse{
		Success:   true,
		SessionID: sessionID,
		Messages:  records,
		Count:     len(records),
	}, s.logger)
}
