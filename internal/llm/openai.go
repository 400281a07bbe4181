package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scoutagent/scout/internal/httpkit"
)

// OpenAIClient talks to any OpenAI-compatible chat completions API.
// Ollama's /v1 endpoint is the default target, but hosted providers
// work the same way given a base URL and API key.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
// baseURL is the API root including the version prefix, e.g.
// "http://localhost:11434/v1". apiKey may be empty for local servers.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return &OpenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: httpkit.NewClient(
			// Large models with tools need time.
			httpkit.WithTimeout(5 * time.Minute),
			httpkit.WithTransport(&http.Transport{
				ResponseHeaderTimeout: 5 * time.Minute,
			}),
		),
	}
}

// Wire types. The OpenAI format carries tool call arguments as a JSON
// string; internally we use map[string]any. Conversion happens here and
// nowhere else.

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatCompletionRequest struct {
	Model    string           `json:"model"`
	Messages []wireMessage    `json:"messages"`
	Tools    []map[string]any `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func toWire(messages []Message) ([]wireMessage, error) {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wm := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				return nil, fmt.Errorf("marshal tool arguments for %s: %w", tc.Function.Name, err)
			}
			wtc := wireToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Function.Name
			wtc.Function.Arguments = string(args)
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		out = append(out, wm)
	}
	return out, nil
}

func fromWire(wm wireMessage) Message {
	m := Message{
		Role:       wm.Role,
		Content:    wm.Content,
		ToolCallID: wm.ToolCallID,
	}
	for _, wtc := range wm.ToolCalls {
		tc := ToolCall{ID: wtc.ID}
		tc.Function.Name = wtc.Function.Name
		if wtc.Function.Arguments != "" {
			// Malformed arguments surface later as a validation failure;
			// an empty map keeps the call itself intact.
			_ = json.Unmarshal([]byte(wtc.Function.Arguments), &tc.Function.Arguments)
		}
		if tc.Function.Arguments == nil {
			tc.Function.Arguments = map[string]any{}
		}
		if tc.ID == "" {
			// Some local servers omit call IDs. Assign one so tool
			// results can still be correlated.
			tc.ID = "call_" + uuid.NewString()
		}
		m.ToolCalls = append(m.ToolCalls, tc)
	}
	return m
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error) {
	wireMsgs, err := toWire(messages)
	if err != nil {
		return nil, err
	}

	req := chatCompletionRequest{
		Model:    model,
		Messages: wireMsgs,
		Tools:    tools,
		Stream:   false,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, body)
	}

	var ccr chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&ccr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(ccr.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in model response")
	}

	msg := fromWire(ccr.Choices[0].Message)

	// Some models emit tool calls as JSON in the content instead of
	// using the native tool_calls field. Recover those.
	if len(msg.ToolCalls) == 0 && msg.Content != "" {
		if parsed := parseTextToolCalls(msg.Content); len(parsed) > 0 {
			msg.ToolCalls = parsed
			msg.Content = ""
		}
	}

	return &ChatResponse{
		Model:        ccr.Model,
		CreatedAt:    time.Unix(ccr.Created, 0),
		Message:      msg,
		Done:         true,
		InputTokens:  ccr.Usage.PromptTokens,
		OutputTokens: ccr.Usage.CompletionTokens,
	}, nil
}

// parseTextToolCalls attempts to extract tool calls from content text.
// Handles common formats:
//   - Raw JSON object: {"name": "...", "arguments": {...}}
//   - JSON array: [{"name": "...", "arguments": {...}}]
//   - Tagged: <tool_call>...</tool_call>
func parseTextToolCalls(content string) []ToolCall {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	// Try to extract from <tool_call> tags
	if strings.Contains(content, "<tool_call>") {
		start := strings.Index(content, "<tool_call>")
		end := strings.Index(content, "</tool_call>")
		if start != -1 && end > start {
			content = strings.TrimSpace(content[start+len("<tool_call>") : end])
		} else if start != -1 {
			// No closing tag, take rest of content
			content = strings.TrimSpace(content[start+len("<tool_call>"):])
		}
	}

	type textCall struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}

	newCall := func(tc textCall) ToolCall {
		call := ToolCall{ID: "call_" + uuid.NewString()}
		call.Function.Name = tc.Name
		call.Function.Arguments = tc.Arguments
		if call.Function.Arguments == nil {
			call.Function.Arguments = map[string]any{}
		}
		return call
	}

	// Try parsing as array of tool calls
	var calls []textCall
	if err := json.Unmarshal([]byte(content), &calls); err == nil && len(calls) > 0 && calls[0].Name != "" {
		result := make([]ToolCall, len(calls))
		for i, c := range calls {
			result[i] = newCall(c)
		}
		return result
	}

	// Try parsing as single tool call object
	var single textCall
	if err := json.Unmarshal([]byte(content), &single); err == nil && single.Name != "" {
		return []ToolCall{newCall(single)}
	}

	return nil
}

// Ping checks if the endpoint is reachable.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error %d", resp.StatusCode)
	}

	return nil
}
