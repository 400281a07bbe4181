package conversation

import (
	"testing"
)

func TestCheckOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		turns   []Turn
		wantErr bool
	}{
		{
			name: "simple exchange",
			turns: []Turn{
				User("hi"),
				Assistant("hello"),
			},
		},
		{
			name: "tool call with result",
			turns: []Turn{
				User("weather in London"),
				ToolCallTurn("c1", "get_lat_lng", map[string]any{"location_description": "London"}),
				ToolResultTurn("c1", `{"lat":51.1,"lng":-0.1}`, false),
				Assistant("It is sunny."),
			},
		},
		{
			name: "parallel calls resolved before next user turn",
			turns: []Turn{
				User("compare"),
				ToolCallTurn("c1", "a", nil),
				ToolCallTurn("c2", "b", nil),
				ToolResultTurn("c2", "two", false),
				ToolResultTurn("c1", "one", false),
				Assistant("done"),
				User("thanks"),
				Assistant("welcome"),
			},
		},
		{
			name: "user turn while call pending",
			turns: []Turn{
				User("q"),
				ToolCallTurn("c1", "a", nil),
				User("another"),
			},
			wantErr: true,
		},
		{
			name: "result without call",
			turns: []Turn{
				User("q"),
				ToolResultTurn("c9", "orphan", false),
			},
			wantErr: true,
		},
		{
			name: "call never resolved",
			turns: []Turn{
				User("q"),
				ToolCallTurn("c1", "a", nil),
			},
			wantErr: true,
		},
		{
			name: "duplicate call id",
			turns: []Turn{
				User("q"),
				ToolCallTurn("c1", "a", nil),
				ToolCallTurn("c1", "b", nil),
			},
			wantErr: true,
		},
		{
			name: "call without id",
			turns: []Turn{
				User("q"),
				ToolCallTurn("", "a", nil),
			},
			wantErr: true,
		},
		{
			name:  "empty sequence",
			turns: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckOrder(tt.turns)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckOrder() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPersistent(t *testing.T) {
	t.Parallel()

	if !User("x").Persistent() {
		t.Error("user turns should persist")
	}
	if !Assistant("x").Persistent() {
		t.Error("assistant turns should persist")
	}
	if ToolCallTurn("c", "t", nil).Persistent() {
		t.Error("tool call turns are auxiliary")
	}
	if ToolResultTurn("c", "r", false).Persistent() {
		t.Error("tool result turns are auxiliary")
	}
}

func TestToMessagesOrder(t *testing.T) {
	t.Parallel()

	turns := []Turn{
		User("weather in London"),
		ToolCallTurn("c1", "get_lat_lng", map[string]any{"location_description": "London"}),
		ToolResultTurn("c1", `{"lat":51.1}`, false),
		Assistant("Sunny."),
	}

	msgs := ToMessages("Be concise.", turns)

	wantRoles := []string{"system", "user", "assistant", "tool", "assistant"}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(wantRoles))
	}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Errorf("msgs[%d].Role = %q, want %q", i, msgs[i].Role, role)
		}
	}

	if len(msgs[2].ToolCalls) != 1 {
		t.Fatalf("assistant tool calls = %d, want 1", len(msgs[2].ToolCalls))
	}
	if msgs[2].ToolCalls[0].Function.Name != "get_lat_lng" {
		t.Errorf("tool name = %q", msgs[2].ToolCalls[0].Function.Name)
	}
	if msgs[3].ToolCallID != "c1" {
		t.Errorf("tool_call_id = %q, want c1", msgs[3].ToolCallID)
	}
}

func TestToMessagesCollapsesParallelCalls(t *testing.T) {
	t.Parallel()

	turns := []Turn{
		User("q"),
		ToolCallTurn("c1", "a", nil),
		ToolCallTurn("c2", "b", nil),
		ToolResultTurn("c1", "one", false),
		ToolResultTurn("c2", "two", false),
		Assistant("done"),
	}

	msgs := ToMessages("", turns)

	// user, assistant(2 calls), tool, tool, assistant
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(msgs))
	}
	if len(msgs[1].ToolCalls) != 2 {
		t.Errorf("assistant tool calls = %d, want 2", len(msgs[1].ToolCalls))
	}
}

func TestToMessagesNoSystemPrompt(t *testing.T) {
	t.Parallel()

	msgs := ToMessages("", []Turn{User("hi")})
	if len(msgs) != 1 || msgs[0].Role != "user" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}
