// Package websearch queries the Serper API for Google search results.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anhoffmann/deepscout/internal/metrics"
)

// ErrSearchBackend indicates the web-search backend failed.
// Use errors.Is() to check for it in calling code.
var ErrSearchBackend = errors.New("web search failed")

const defaultBaseURL = "https://google.serper.dev/search"

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}

// Client calls the Serper search API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	collector  *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Serper client. The API key is required; callers that
// have no key should not construct a client and instead omit the web source.
func NewClient(apiKey string, collector *metrics.Collector, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("serper API key required")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		collector:  collector,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type searchResponse struct {
	Organic   []Result `json:"organic"`
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
}

// Search returns up to n organic results for the query. Zero hits is an
// empty slice, not an error; transport and HTTP failures wrap
// ErrSearchBackend.
func (c *Client) Search(ctx context.Context, query string, n int) ([]Result, error) {
	resp, err := c.do(ctx, query, n)
	if err != nil {
		return nil, err
	}

	results := resp.Organic
	if len(results) > n {
		results = results[:n]
	}
	if results == nil {
		results = []Result{}
	}
	return results, nil
}

// AnswerBox returns the answer-box content for a query, or "" when the
// response has none.
func (c *Client) AnswerBox(ctx context.Context, query string) (string, error) {
	resp, err := c.do(ctx, query, 1)
	if err != nil {
		return "", err
	}
	if resp.AnswerBox == nil {
		return "", nil
	}
	if resp.AnswerBox.Answer != "" {
		return resp.AnswerBox.Answer, nil
	}
	return resp.AnswerBox.Snippet, nil
}

func (c *Client) do(ctx context.Context, query string, n int) (*searchResponse, error) {
	body, err := json.Marshal(searchRequest{Q: query, Num: n})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchBackend, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSearchBackend, httpResp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var resp searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchBackend, err)
	}

	if c.collector != nil {
		c.collector.RecordTiming(metrics.OpWebSearch, duration)
	}
	return &resp, nil
}

// FormatResults renders search hits as a numbered text block for prompting.
// Zero hits renders a fixed no-results line.
func FormatResults(query string, results []Result) string {
	if len(results) == 0 {
		return "No search results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search Results for: '%s'\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&sb, "   URL: %s\n", r.Link)
		fmt.Fprintf(&sb, "   %s", r.Snippet)
		if r.Date != "" {
			fmt.Fprintf(&sb, "\n   Date: %s", r.Date)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
