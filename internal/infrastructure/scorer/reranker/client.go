package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/resilience"
)

// Client calls the cross-encoder scoring sidecar. The sidecar serves a
// batch predict endpoint returning one raw logit per (query, text)
// pair; normalization happens in the grader.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) Predict(ctx context.Context, pairs []domain.ScorePair) ([]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	var scores []float64
	call := func(ctx context.Context) error {
		var err error
		scores, err = c.predict(ctx, pairs)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "reranker.predict", call, classifyRerankerError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (c *Client) predict(ctx context.Context, pairs []domain.ScorePair) ([]float64, error) {
	wire := make([][2]string, 0, len(pairs))
	for _, pair := range pairs {
		wire = append(wire, [2]string{pair.Query, pair.Text})
	}

	body, err := json.Marshal(map[string]any{"pairs": wire})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("predict status: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var decoded struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	if len(decoded.Scores) != len(pairs) {
		return nil, fmt.Errorf("predict returned %d scores for %d pairs", len(decoded.Scores), len(pairs))
	}
	return decoded.Scores, nil
}

func classifyRerankerError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
