package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

// Client queries the Serper search API for web fallback evidence.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

type Options struct {
	MaxResults int
	Timeout    time.Duration
}

func New(baseURL, apiKey string, options Options) *Client {
	maxResults := options.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://google.serper.dev"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Search(ctx context.Context, query string) ([]domain.WebResult, error) {
	body, err := json.Marshal(map[string]any{"q": query, "num": c.maxResults})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("web search status: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var decoded struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]domain.WebResult, 0, c.maxResults)
	for _, hit := range decoded.Organic {
		results = append(results, domain.WebResult{
			Title:   hit.Title,
			URL:     hit.Link,
			Snippet: hit.Snippet,
		})
		if len(results) >= c.maxResults {
			break
		}
	}
	return results, nil
}
