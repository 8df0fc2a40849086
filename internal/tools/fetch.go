package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	fetchURLToolName = "fetch_url"

	// OnlyHTTPMessage is the failure output for non-http(s) URLs.
	OnlyHTTPMessage = "Only http(s) URLs are allowed."

	// fetchReadLimit bounds the bytes read off the wire; the character cap
	// is applied afterwards.
	fetchReadLimit = 4 * MaxOutputChars
)

type fetchURLInput struct {
	URL string `json:"url" jsonschema:"description=Absolute http or https URL to fetch"`
}

// FetchURLTool downloads a web page or document over http(s).
type FetchURLTool struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetchURLTool constructs fetch_url. A nil client selects http.DefaultClient;
// a positive timeout bounds each request.
func NewFetchURLTool(client *http.Client, timeout time.Duration) FetchURLTool {
	if client == nil {
		client = http.DefaultClient
	}
	return FetchURLTool{client: client, timeout: timeout}
}

func (FetchURLTool) Name() string { return fetchURLToolName }

func (FetchURLTool) Description() string {
	return fmt.Sprintf("Fetch the body of an http(s) URL. The response is cut off after %d characters.", MaxOutputChars)
}

func (FetchURLTool) Input() any { return fetchURLInput{} }

func (f FetchURLTool) Execute(ctx context.Context, params json.RawMessage) (Result, error) {
	var input fetchURLInput
	if err := decodeParams(params, &input); err != nil {
		return Result{}, fmt.Errorf("decode fetch_url params: %w", err)
	}

	raw := strings.TrimSpace(input.URL)
	if raw == "" {
		return Result{}, errors.New("url is required")
	}
	target, err := url.Parse(raw)
	if err != nil {
		return Result{}, fmt.Errorf("parse url: %w", err)
	}
	if scheme := strings.ToLower(target.Scheme); scheme != "http" && scheme != "https" {
		return Failure(OnlyHTTPMessage), nil
	}
	if target.Host == "" {
		return Result{}, fmt.Errorf("url has no host: %s", raw)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "termagent/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", raw, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchReadLimit))
	if err != nil {
		return Result{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failure(fmt.Sprintf("HTTP %s", resp.Status)), nil
	}

	content, _ := truncateChars(string(body), MaxOutputChars)
	return Success(content), nil
}
