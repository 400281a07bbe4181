package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scoutagent/scout/internal/tools"
)

// SystemPrompt instructs the model how to use the Wikipedia tools.
const SystemPrompt = `Be concise and informative. You have access to Wikipedia data through two tools:
Use search_wikipedia to find relevant articles about a topic.
Use get_wikipedia_content to retrieve the content of a specific article.
Summarize the information in a clear and factual way.`

// RegisterTools adds the Wikipedia tool pair to the registry.
func RegisterTools(r *tools.Registry, c *Client) {
	r.Register(&tools.Tool{
		Name:        "search_wikipedia",
		Description: "Search Wikipedia for articles related to the query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query.",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			results, err := c.Search(ctx, tools.StringArg(args, "query"))
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(results)
			if err != nil {
				return "", fmt.Errorf("encode results: %w", err)
			}
			return string(out), nil
		},
	})

	r.Register(&tools.Tool{
		Name:        "get_wikipedia_content",
		Description: "Get the plain-text content of a Wikipedia article by title.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "The title of the Wikipedia article.",
				},
			},
			"required": []string{"title"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return c.Content(ctx, tools.StringArg(args, "title"))
		},
	})
}
