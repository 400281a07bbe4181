// Package conversation defines the turn model: the atomic units of a
// conversation, their ordering rules, and their mapping onto the LLM
// wire format and the persistence layer.
package conversation

import (
	"fmt"

	"github.com/scoutagent/scout/internal/llm"
)

// Kind identifies the type of a conversation turn.
type Kind string

const (
	// KindUser is text entered by the user.
	KindUser Kind = "user"

	// KindAssistant is a final text reply from the model.
	KindAssistant Kind = "assistant"

	// KindToolCall is a tool invocation requested by the model.
	KindToolCall Kind = "tool_call"

	// KindToolResult is the outcome of a tool invocation, fed back to
	// the model. For retryable failures Content carries a hint rather
	// than data and IsError is set.
	KindToolResult Kind = "tool_result"
)

// Turn is one atomic unit of conversation state.
type Turn struct {
	Kind     Kind
	Content  string
	ToolName string         // KindToolCall only
	Args     map[string]any // KindToolCall only
	CallID   string         // correlates KindToolCall with its KindToolResult
	IsError  bool           // KindToolResult: content is an error hint, not data
}

// User builds a user turn.
func User(content string) Turn {
	return Turn{Kind: KindUser, Content: content}
}

// Assistant builds a final model text turn.
func Assistant(content string) Turn {
	return Turn{Kind: KindAssistant, Content: content}
}

// ToolCallTurn builds a tool call turn from a model-requested call.
func ToolCallTurn(callID, name string, args map[string]any) Turn {
	return Turn{Kind: KindToolCall, CallID: callID, ToolName: name, Args: args}
}

// ToolResultTurn builds a tool result turn. isError marks retry hints
// and failure messages.
func ToolResultTurn(callID, content string, isError bool) Turn {
	return Turn{Kind: KindToolResult, CallID: callID, Content: content, IsError: isError}
}

// Persistent reports whether a turn belongs in durable session history.
// User and assistant text turns always persist; tool traffic is stored
// separately as auxiliary context (see the history package) and is
// excluded from user-facing listings.
func (t Turn) Persistent() bool {
	return t.Kind == KindUser || t.Kind == KindAssistant
}

// CheckOrder verifies the tool-call pairing invariant: every tool call
// is followed, before the next user turn, by exactly one tool result
// sharing its call ID. Returns nil for well-formed sequences.
func CheckOrder(turns []Turn) error {
	// call IDs awaiting a result
	open := make(map[string]int)

	for i, t := range turns {
		switch t.Kind {
		case KindUser:
			if len(open) > 0 {
				return fmt.Errorf("turn %d: user turn while %d tool call(s) await results", i, len(open))
			}
		case KindToolCall:
			if t.CallID == "" {
				return fmt.Errorf("turn %d: tool call without call ID", i)
			}
			if _, dup := open[t.CallID]; dup {
				return fmt.Errorf("turn %d: duplicate tool call ID %q", i, t.CallID)
			}
			open[t.CallID] = i
		case KindToolResult:
			if _, ok := open[t.CallID]; !ok {
				return fmt.Errorf("turn %d: tool result %q without matching call", i, t.CallID)
			}
			delete(open, t.CallID)
		}
	}

	if len(open) > 0 {
		return fmt.Errorf("%d tool call(s) never received results", len(open))
	}
	return nil
}

// ToMessages serializes turns to the LLM wire format, preserving kind
// and order exactly. A non-empty system prompt becomes the leading
// system message. Consecutive tool calls collapse into one assistant
// message carrying multiple tool_calls, matching how the model emitted
// them.
func ToMessages(systemPrompt string, turns []Turn) []llm.Message {
	var msgs []llm.Message
	if systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})
	}

	for i := 0; i < len(turns); i++ {
		t := turns[i]
		switch t.Kind {
		case KindUser:
			msgs = append(msgs, llm.Message{Role: "user", Content: t.Content})
		case KindAssistant:
			msgs = append(msgs, llm.Message{Role: "assistant", Content: t.Content})
		case KindToolCall:
			// Gather the full run of calls issued in this model turn.
			assistant := llm.Message{Role: "assistant"}
			for i < len(turns) && turns[i].Kind == KindToolCall {
				tc := llm.ToolCall{ID: turns[i].CallID}
				tc.Function.Name = turns[i].ToolName
				tc.Function.Arguments = turns[i].Args
				assistant.ToolCalls = append(assistant.ToolCalls, tc)
				i++
			}
			i-- // loop increment re-advances
			msgs = append(msgs, assistant)
		case KindToolResult:
			msgs = append(msgs, llm.Message{
				Role:       "tool",
				Content:    t.Content,
				ToolCallID: t.CallID,
			})
		}
	}

	return msgs
}
