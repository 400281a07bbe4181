// Package forge provides the GitHub repository inspection tools.
package forge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v69/github"

	"github.com/scoutagent/scout/internal/httpkit"
)

// Client wraps the go-github SDK for the repository tools. A token is
// optional; unauthenticated requests work with a lower rate limit.
type Client struct {
	gh     *gogithub.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	baseURL    string
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithBaseURL points the client at a different API root (tests,
// GitHub Enterprise).
func WithBaseURL(u string) Option {
	return func(c *clientConfig) { c.baseURL = u }
}

// New creates a GitHub client.
func New(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = httpkit.NewClient(httpkit.WithUserAgent("scout-forge/1.0"))
	}

	gh := gogithub.NewClient(hc)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	if cfg.baseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.baseURL, cfg.baseURL)
		if err != nil {
			return nil, fmt.Errorf("forge: base url: %w", err)
		}
	}

	return &Client{gh: gh, logger: logger}, nil
}

// splitRepo splits a "owner/repo" string into its two parts.
func splitRepo(repo string) (string, string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q: expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

// checkRateLimit logs a warning when remaining API calls drop below threshold.
func (c *Client) checkRateLimit(resp *gogithub.Response) {
	if resp == nil {
		return
	}
	if resp.Rate.Remaining < 100 {
		c.logger.Warn("forge: github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}

/// RepoInfo returns a text summary of a repository: description,
// language, stars, forks, default branch.
func (c *Client) RepoInfo(ctx context.Context, repo string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	r, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("forge: get repo: %w", err)
	}
	c.checkRateLimit(resp)

	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", r.GetFullName())
	if r.GetDescription() != "" {
		fmt.Fprintf(&b, "Description: %s\n", r.GetDescription())
	}
	if r.GetLanguage() != "" {
		fmt.Fprintf(&b, "Language: %s\n", r.GetLanguage())
	}
	fmt.Fprintf(&b, "Stars: %d\n", r.GetStargazersCount())
	fmt.Fprintf(&b, "Forks: %d\n", r.GetForksCount())
	fmt.Fprintf(&b, "Open issues: %d\n", r.GetOpenIssuesCount())
	fmt.Fprintf(&b, "Default branch: %s\n", r.GetDefaultBranch())
	if !r.GetUpdatedAt().IsZero() {
		fmt.Fprintf(&b, "Updated: %s\n", r.GetUpdatedAt().Format("2006-01-02"))
	}
	return b.String(), nil
}

// RepoStructure lists a directory within a repository, one entry per
// line, directories suffixed with "/". path may be empty for the root.
func (c *Client) RepoStructure(ctx context.Context, repo, path string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	_, entries, resp, err := c.gh.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		return "", fmt.Errorf("forge: list contents: %w", err)
	}
	c.checkRateLimit(resp)

	if len(entries) == 0 {
		return fmt.Sprintf("No entries at %q", path), nil
	}

	var b strings.Builder
	for _, e := range entries {
		if e.GetType() == "dir" {
			fmt.Fprintf(&b, "%s/\n", e.GetPath())
		} else {
			fmt.Fprintf(&b, "%s (%d bytes)\n", e.GetPath(), e.GetSize())
		}
	}
	return b.String(), nil
}

// FileContent fetches one file's decoded content.
func (c *Client) FileContent(ctx context.Context, repo, path string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		return "", fmt.Errorf("forge: get file: %w", err)
	}
	c.checkRateLimit(resp)

	if file == nil {
		return "", fmt.Errorf("forge: %q is a directory, not a file", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("forge: decode file content: %w", err)
	}
	return content, nil
}
