// Package agent runs the tool-calling conversation loop: send the
// conversation to the model, execute any tools it requests, feed the
// results back, and repeat until the model answers in text or the
// round cap is hit.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/scoutagent/scout/internal/conversation"
	"github.com/scoutagent/scout/internal/llm"
	"github.com/scoutagent/scout/internal/tools"
)

// DefaultMaxRounds caps model round-trips per request when the
// configuration does not say otherwise.
const DefaultMaxRounds = 10

// ErrRoundLimit is returned when the model keeps requesting tools past
// the round cap without producing a text answer.
var ErrRoundLimit = errors.New("model did not produce a final answer within the round limit")

// Loop drives a single agent conversation against one model and one
// tool registry.
type Loop struct {
	client    llm.Client
	model     string
	registry  *tools.Registry
	logger    *slog.Logger
	maxRounds int
}

// New builds a Loop. maxRounds <= 0 falls back to DefaultMaxRounds.
func New(client llm.Client, model string, registry *tools.Registry, logger *slog.Logger, maxRounds int) *Loop {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Loop{
		client:    client,
		model:     model,
		registry:  registry,
		logger:    logger,
		maxRounds: maxRounds,
	}
}

// Result is the outcome of one Run.
type Result struct {
	// NewTurns holds every turn produced by this run, starting with the
	// user turn and ending with the final assistant turn. Tool traffic
	// sits in between.
	NewTurns []conversation.Turn

	// Text is the final assistant answer.
	Text string

	// Token usage summed over all rounds.
	InputTokens  int
	OutputTokens int
}

// Run executes the loop for one user message on top of prior history.
// prior must contain only resolved turns (see conversation.CheckOrder);
// it is read, never modified.
func (l *Loop) Run(ctx context.Context, systemPrompt string, prior []conversation.Turn, userMessage string) (*Result, error) {
	res := &Result{
		NewTurns: []conversation.Turn{conversation.User(userMessage)},
	}

	turns := make([]conversation.Turn, 0, len(prior)+4)
	turns = append(turns, prior...)
	turns = append(turns, res.NewTurns...)

	toolSpecs := l.registry.List()

	for round := 0; round < l.maxRounds; round++ {
		resp, err := l.client.Chat(ctx, l.model, conversation.ToMessages(systemPrompt, turns), toolSpecs)
		if err != nil {
			return nil, fmt.Errorf("chat round %d: %w", round+1, err)
		}
		res.InputTokens += resp.InputTokens
		res.OutputTokens += resp.OutputTokens

		calls := resp.Message.ToolCalls
		if len(calls) == 0 {
			res.NewTurns = append(res.NewTurns, conversation.Assistant(resp.Message.Content))
			res.Text = resp.Message.Content
			l.logger.Debug("agent run complete",
				"rounds", round+1,
				"input_tokens", res.InputTokens,
				"output_tokens", res.OutputTokens)
			return res, nil
		}

		for _, call := range calls {
			t := conversation.ToolCallTurn(call.ID, call.Function.Name, call.Function.Arguments)
			res.NewTurns = append(res.NewTurns, t)
			turns = append(turns, t)
		}

		results, err := l.executeCalls(ctx, calls)
		if err != nil {
			return nil, err
		}
		res.NewTurns = append(res.NewTurns, results...)
		turns = append(turns, results...)
	}

	return nil, fmt.Errorf("%w (limit %d)", ErrRoundLimit, l.maxRounds)
}

// executeCalls runs every requested tool concurrently and returns one
// result turn per call, in request order. A fatal tool outcome aborts
// the run after all in-flight calls have finished.
func (l *Loop) executeCalls(ctx context.Context, calls []llm.ToolCall) ([]conversation.Turn, error) {
	outcomes := make([]tools.Outcome, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			l.logger.Debug("executing tool",
				"tool", call.Function.Name,
				"call_id", call.ID)
			outcomes[i] = l.registry.Invoke(ctx, call.Function.Name, call.Function.Arguments)
		}(i, call)
	}
	wg.Wait()

	turns := make([]conversation.Turn, 0, len(calls))
	for i, call := range calls {
		switch out := outcomes[i]; out.Kind {
		case tools.OutcomeSuccess:
			turns = append(turns, conversation.ToolResultTurn(call.ID, out.Value, false))
		case tools.OutcomeRetryHint:
			l.logger.Debug("tool asked for retry",
				"tool", call.Function.Name,
				"hint", out.Hint)
			turns = append(turns, conversation.ToolResultTurn(call.ID, out.Hint, true))
		case tools.OutcomeFatal:
			return nil, fmt.Errorf("tool %s: %w", call.Function.Name, out.Err)
		default:
			return nil, fmt.Errorf("tool %s: unknown outcome kind %d", call.Function.Name, out.Kind)
		}
	}
	return turns, nil
}
