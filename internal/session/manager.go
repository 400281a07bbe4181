package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scoutagent/scout/internal/agent"
	"github.com/scoutagent/scout/internal/config"
	"github.com/scoutagent/scout/internal/conversation"
	"github.com/scoutagent/scout/internal/history"
	"github.com/scoutagent/scout/internal/llm"
)

// ApologyMessage is persisted and returned when a run fails after the
// user's message was accepted.
const ApologyMessage = "I apologize, but I encountered an error processing your request."

// Manager builds agents on demand and runs conversations against the
// history store.
type Manager struct {
	cfg    *config.Config
	client llm.Client
	store  history.Store
	logger *slog.Logger
}

// NewManager wires the model client and history store. Every agent
// kind is constructed once up front to surface wiring errors at
// startup rather than on the first request.
func NewManager(cfg *config.Config, client llm.Client, store history.Store, logger *slog.Logger) (*Manager, error) {
	m := &Manager{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger,
	}
	for _, kind := range []Kind{KindGitHub, KindWeather, KindWikipedia} {
		a, err := newAgent(kind, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("build %s agent: %w", kind, err)
		}
		a.Close()
	}
	return m, nil
}

// Agent builds a fresh agent with its own dependency bundle. The
// caller owns it and must Close it.
func (m *Manager) Agent(kind Kind) (*Agent, error) {
	return newAgent(kind, m.cfg, m.logger)
}

// DefaultKind returns the configured agent kind.
func (m *Manager) DefaultKind() (Kind, error) {
	return ParseKind(m.cfg.Agent.Kind)
}

func (m *Manager) loop(a *Agent) *agent.Loop {
	return agent.New(m.client, m.cfg.Model.Name, a.Registry, m.logger, m.cfg.Agent.MaxRounds)
}

// Respond handles one request for a session: load the recent
// transcript, run the conversation loop, and persist the outcome.
// Only the user message and the final answer join the transcript; tool
// traffic goes to the audit trail. When the run fails, the apology is
// persisted with the error recorded in its metadata, and is returned
// alongside the error so callers can surface both.
func (m *Manager) Respond(ctx context.Context, kind Kind, sessionID, userMessage string, meta map[string]any) (string, error) {
	a, err := newAgent(kind, m.cfg, m.logger)
	if err != nil {
		return "", err
	}
	defer a.Close()

	entries, err := m.store.Fetch(ctx, sessionID, m.cfg.History.FetchLimit)
	if err != nil {
		return "", fmt.Errorf("fetch history: %w", err)
	}
	prior := history.Turns(entries)

	res, runErr := m.loop(a).Run(ctx, a.SystemPrompt, prior, userMessage)

	if _, err := m.store.Append(ctx, sessionID, conversation.User(userMessage), meta); err != nil {
		return "", fmt.Errorf("persist user message: %w", err)
	}

	if runErr != nil {
		m.logger.Error("agent run failed",
			"agent", a.Kind.String(),
			"session_id", sessionID,
			"error", runErr)
		failMeta := map[string]any{"error": runErr.Error()}
		for k, v := range meta {
			failMeta[k] = v
		}
		if _, err := m.store.Append(ctx, sessionID, conversation.Assistant(ApologyMessage), failMeta); err != nil {
			return "", fmt.Errorf("persist apology: %w", err)
		}
		return ApologyMessage, runErr
	}

	m.recordToolCalls(ctx, sessionID, res.NewTurns)

	if _, err := m.store.Append(ctx, sessionID, conversation.Assistant(res.Text), meta); err != nil {
		return "", fmt.Errorf("persist answer: %w", err)
	}
	return res.Text, nil
}

// recordToolCalls writes each resolved call/result pair to the audit
// trail. Audit failures are logged, not fatal: the answer already
// exists.
func (m *Manager) recordToolCalls(ctx context.Context, sessionID string, turns []conversation.Turn) {
	calls := map[string]conversation.Turn{}
	for _, t := range turns {
		switch t.Kind {
		case conversation.KindToolCall:
			calls[t.CallID] = t
		case conversation.KindToolResult:
			call, ok := calls[t.CallID]
			if !ok {
				continue
			}
			if err := m.store.RecordToolCall(ctx, sessionID, call, t); err != nil {
				m.logger.Warn("tool call audit failed",
					"session_id", sessionID,
					"tool", call.ToolName,
					"error", err)
			}
		}
	}
}
