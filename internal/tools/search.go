package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	webSearchToolName = "web_search"

	// SearchKeyEnv names the environment variable holding the search credential.
	SearchKeyEnv          = "TAVILY_API_KEY"
	DefaultSearchEndpoint = "https://api.tavily.com/search"

	defaultSearchResults = 5
	maxSearchResults     = 10
)

// SearchConfig locates the search backend and its credential. The
// credential is looked up on every call: the environment first, then
// APIKey, then the contents of KeyFile.
type SearchConfig struct {
	Endpoint string
	APIKey   string
	KeyFile  string
}

type webSearchInput struct {
	Query      string `json:"query" jsonschema:"description=Search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Number of results to return (1-10; default 5)"`
}

// WebSearchTool queries the Tavily search API.
type WebSearchTool struct {
	cfg     SearchConfig
	client  *http.Client
	timeout time.Duration
}

// NewWebSearchTool constructs web_search.
func NewWebSearchTool(cfg SearchConfig, client *http.Client, timeout time.Duration) WebSearchTool {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultSearchEndpoint
	}
	return WebSearchTool{cfg: cfg, client: client, timeout: timeout}
}

func (WebSearchTool) Name() string { return webSearchToolName }

func (WebSearchTool) Description() string {
	return "Search the web. Returns the top results with title, URL and a content snippet."
}

func (WebSearchTool) Input() any { return webSearchInput{} }

func (s WebSearchTool) Execute(ctx context.Context, params json.RawMessage) (Result, error) {
	var input webSearchInput
	if err := decodeParams(params, &input); err != nil {
		return Result{}, fmt.Errorf("decode web_search params: %w", err)
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return Result{}, errors.New("query is required")
	}
	limit := input.MaxResults
	if limit <= 0 {
		limit = defaultSearchResults
	}
	limit = min(limit, maxSearchResults)

	key, err := s.apiKey()
	if err != nil {
		return Result{}, err
	}
	if key == "" {
		hint := "set " + SearchKeyEnv
		if s.cfg.KeyFile != "" {
			hint += " or save a key to " + s.cfg.KeyFile
		}
		return Failure(fmt.Sprintf("web_search is not configured: %s.", hint)), nil
	}

	body, _ := sjson.SetBytes(nil, "query", query)
	body, _ = sjson.SetBytes(body, "max_results", limit)
	body, _ = sjson.SetBytes(body, "search_depth", "basic")

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(raw, "detail.error").String()
		if msg == "" {
			msg = gjson.GetBytes(raw, "error").String()
		}
		if msg == "" {
			msg = resp.Status
		}
		return Failure("search failed: " + msg), nil
	}
	if !gjson.ValidBytes(raw) {
		return Result{}, errors.New("search response is not valid json")
	}

	return Success(formatSearchResults(raw, limit)), nil
}

func (s WebSearchTool) apiKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(SearchKeyEnv)); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(s.cfg.APIKey); key != "" {
		return key, nil
	}
	if s.cfg.KeyFile == "" {
		return "", nil
	}
	raw, err := os.ReadFile(s.cfg.KeyFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read search key file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func formatSearchResults(raw []byte, limit int) string {
	var b strings.Builder
	if answer := strings.TrimSpace(gjson.GetBytes(raw, "answer").String()); answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n\n", answer)
	}
	n := 0
	gjson.GetBytes(raw, "results").ForEach(func(_, item gjson.Result) bool {
		n++
		fmt.Fprintf(&b, "%d. %s\n   %s\n", n, item.Get("title").String(), item.Get("url").String())
		if content := strings.TrimSpace(item.Get("content").String()); content != "" {
			fmt.Fprintf(&b, "   %s\n", content)
		}
		return n < limit
	})
	if n == 0 && b.Len() == 0 {
		return "No results."
	}
	return strings.TrimRight(b.String(), "\n")
}
