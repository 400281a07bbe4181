// Package wikipedia provides the Wikipedia search and article content
// tools, backed by the MediaWiki action API.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/scoutagent/scout/internal/httpkit"
)

const defaultAPIURL = "https://en.wikipedia.org/w/api.php"

// DefaultUserAgent identifies Scout to the MediaWiki API, which asks
// clients to send a descriptive User-Agent.
const DefaultUserAgent = "WikipediaBot/1.0"

// SearchResult is one entry from a Wikipedia search, as returned
// upstream (a subset of the fields MediaWiki sends).
type SearchResult struct {
	Title   string `json:"title"`
	PageID  int    `json:"pageid"`
	Snippet string `json:"snippet"`
	Size    int    `json:"size"`
	WordCnt int    `json:"wordcount"`
}

// Client calls the MediaWiki action API.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the API endpoint (tests).
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Wikipedia client. userAgent may be empty, in which
// case DefaultUserAgent is sent.
func New(userAgent string, opts ...Option) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := &Client{
		apiURL: defaultAPIURL,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(20*time.Second),
			httpkit.WithUserAgent(userAgent),
		),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, params url.Values, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("wikipedia: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikipedia: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return fmt.Errorf("wikipedia: HTTP %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("wikipedia: decode response: %w", err)
	}
	return nil
}

// Search queries Wikipedia and returns the upstream result list in
// upstream order.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"format":   {"json"},
	}

	var payload struct {
		Query struct {
			Search []SearchResult `json:"search"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, err
	}
	return payload.Query.Search, nil
}

// Content fetches an article's extract and reduces it to plain text.
// The first page in the response is used; MediaWiki returns page ID -1
// with no extract when the title does not exist.
func (c *Client) Content(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action": {"query"},
		"prop":   {"extracts"},
		"titles": {title},
		"format": {"json"},
	}

	var payload struct {
		Query struct {
			Pages map[string]struct {
				PageID  int    `json:"pageid"`
				Title   string `json:"title"`
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &payload); err != nil {
		return "", err
	}

	for _, page := range payload.Query.Pages {
		if page.Extract == "" {
			return "", fmt.Errorf("wikipedia: no content for %q", title)
		}
		return ExtractText(page.Extract), nil
	}
	return "", fmt.Errorf("wikipedia: no pages in response for %q", title)
}
