package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ClientConfig holds the provider connection and sampling parameters.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	// Outbound pacing per model, to stay under the provider's request
	// quota instead of discovering it through 429s.
	PacingRPS   float64
	PacingBurst int
}

func (c ClientConfig) normalize() ClientConfig {
	out := c
	if out.BaseURL == "" {
		out.BaseURL = "https://api.groq.com"
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = 1024
	}
	if out.Temperature < 0 {
		out.Temperature = 0.5
	}
	if out.Timeout <= 0 {
		out.Timeout = 60 * time.Second
	}
	if out.PacingRPS <= 0 {
		out.PacingRPS = 2
	}
	if out.PacingBurst <= 0 {
		out.PacingBurst = 2
	}
	return out
}

// Client speaks the provider's OpenAI-compatible chat-completions API.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	limiters   map[string]*rate.Limiter
}

// New builds a client with one pacing limiter per pool model.
func New(cfg ClientConfig, models []string) *Client {
	cfg = cfg.normalize()
	limiters := make(map[string]*rate.Limiter, len(models))
	for _, model := range models {
		limiters[model] = rate.NewLimiter(rate.Limit(cfg.PacingRPS), cfg.PacingBurst)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiters:   limiters,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt to one model. A provider throttle surfaces
// as *RateLimitError so the failover layer can back off instead of
// hammering the same model.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	if limiter, ok := c.limiters[model]; ok {
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	payload := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{
			Model:      model,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode >= 300 {
		return "", formatHTTPError(model, resp)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("completion for %s: no choices in response", model)
	}
	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("completion for %s: empty content", model)
	}
	return text, nil
}

func formatHTTPError(model string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return &HTTPStatusError{Model: model, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return &HTTPStatusError{Model: model, StatusCode: resp.StatusCode, Status: resp.Status, Body: msg}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
