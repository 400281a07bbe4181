package forge

import (
	"context"

	"github.com/scoutagent/scout/internal/tools"
)

// SystemPrompt instructs the model how to use the GitHub tools.
const SystemPrompt = `Be concise. You can inspect GitHub repositories with three tools:
Use get_repo_info for repository metadata.
Use get_repo_structure to list files and directories.
Use get_file_content to read a specific file.
Repositories are identified as owner/repo.`

// RegisterTools adds the GitHub repository tools to the registry.
func RegisterTools(r *tools.Registry, c *Client) {
	repoParam := map[string]any{
		"type":        "string",
		"description": "The repository in owner/repo form, e.g. golang/go.",
	}

	r.Register(&tools.Tool{
		Name:        "get_repo_info",
		Description: "Get metadata about a GitHub repository: description, language, stars, default branch.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"repo": repoParam,
			},
			"required": []string{"repo"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return c.RepoInfo(ctx, tools.StringArg(args, "repo"))
		},
	})

	r.Register(&tools.Tool{
		Name:        "get_repo_structure",
		Description: "List the files and directories at a path within a GitHub repository.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"repo": repoParam,
				"path": map[string]any{
					"type":        "string",
					"description": "Directory path within the repository. Empty for the root.",
				},
			},
			"required": []string{"repo"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return c.RepoStructure(ctx, tools.StringArg(args, "repo"), tools.StringArg(args, "path"))
		},
	})

	r.Register(&tools.Tool{
		Name:        "get_file_content",
		Description: "Read the content of one file in a GitHub repository.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"repo": repoParam,
				"path": map[string]any{
					"type":        "string",
					"description": "File path within the repository.",
				},
			},
			"required": []string{"repo", "path"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return c.FileContent(ctx, tools.StringArg(args, "repo"), tools.StringArg(args, "path"))
		},
	})
}
