package groq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

// CompletionClient is the single-model invocation the pool walks over.
type CompletionClient interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// PoolConfig tunes the failover walk.
type PoolConfig struct {
	Models      []string
	MaxFailures int
	// Cooldown re-admits a model whose failure counter hit the ceiling
	// once this much time has passed since its last failure.
	Cooldown time.Duration
	// RateLimitBackoff is the bounded delay before trying the next
	// model after a provider throttle, so failover does not amplify the
	// problem.
	RateLimitBackoff time.Duration

	// Response cache is a pure optimization; disable for deterministic
	// tests.
	CacheEnabled bool
	CacheTTL     time.Duration
}

func (c PoolConfig) normalize() PoolConfig {
	out := c
	if out.MaxFailures <= 0 {
		out.MaxFailures = 3
	}
	if out.Cooldown <= 0 {
		out.Cooldown = 60 * time.Second
	}
	if out.RateLimitBackoff <= 0 {
		out.RateLimitBackoff = 2 * time.Second
	}
	if out.CacheTTL <= 0 {
		out.CacheTTL = 5 * time.Minute
	}
	return out
}

// modelState is one pool entry's failure tracking. Each entry has its
// own mutex so in-flight requests serialize per model, not across the
// pool.
type modelState struct {
	model string

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
}

// FailoverCaller walks an ordered model pool: skip exhausted models,
// reset the counter on success, count failures, back off after a
// throttle, and surface pool exhaustion as a typed error. It implements
// ports.AnswerGenerator.
type FailoverCaller struct {
	client CompletionClient
	cfg    PoolConfig
	states []*modelState
	cache  *gocache.Cache

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewFailoverCaller(client CompletionClient, cfg PoolConfig) *FailoverCaller {
	cfg = cfg.normalize()
	states := make([]*modelState, 0, len(cfg.Models))
	for _, model := range cfg.Models {
		states = append(states, &modelState{model: model})
	}
	caller := &FailoverCaller{
		client: client,
		cfg:    cfg,
		states: states,
		sleep:  sleepContext,
		now:    time.Now,
	}
	if cfg.CacheEnabled {
		caller.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return caller
}

func (f *FailoverCaller) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(prompt); ok {
			if generation, ok := cached.(domain.Generation); ok {
				return generation, nil
			}
		}
	}

	var lastErr error
	for _, state := range f.states {
		if !f.eligible(state) {
			continue
		}

		text, err := f.client.Complete(ctx, state.model, prompt)
		if err == nil {
			f.recordSuccess(state)
			generation := domain.Generation{Text: text, Model: state.model}
			if f.cache != nil {
				f.cache.SetDefault(prompt, generation)
			}
			return generation, nil
		}

		outcome := classifyCallError(ctx, err)
		if outcome == outcomeCanceled {
			return domain.Generation{}, err
		}

		lastErr = err
		failures := f.recordFailure(state)
		slog.Warn("model_call_failed",
			"model", state.model,
			"failures", failures,
			"max_failures", f.cfg.MaxFailures,
			"rate_limited", outcome == outcomeRateLimited,
			"error", err,
		)

		if outcome == outcomeRateLimited {
			if err := f.sleep(ctx, f.cfg.RateLimitBackoff); err != nil {
				return domain.Generation{}, err
			}
		}
	}

	if lastErr != nil {
		return domain.Generation{}, domain.WrapError(domain.ErrGenerationExhausted, "model pool", lastErr)
	}
	return domain.Generation{}, domain.ErrGenerationExhausted
}

// FailureCount reports one model's current counter. Diagnostics only.
func (f *FailoverCaller) FailureCount(model string) int {
	for _, state := range f.states {
		if state.model == model {
			state.mu.Lock()
			defer state.mu.Unlock()
			return state.failures
		}
	}
	return 0
}

// ResetCounters clears every model's failure state.
func (f *FailoverCaller) ResetCounters() {
	for _, state := range f.states {
		state.mu.Lock()
		state.failures = 0
		state.lastFailure = time.Time{}
		state.mu.Unlock()
	}
}

// eligible also re-admits an exhausted model whose cooldown has passed,
// clearing its counter.
func (f *FailoverCaller) eligible(state *modelState) bool {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.failures < f.cfg.MaxFailures {
		return true
	}
	if f.now().Sub(state.lastFailure) >= f.cfg.Cooldown {
		state.failures = 0
		return true
	}
	return false
}

func (f *FailoverCaller) recordSuccess(state *modelState) {
	state.mu.Lock()
	state.failures = 0
	state.lastFailure = time.Time{}
	state.mu.Unlock()
}

func (f *FailoverCaller) recordFailure(state *modelState) int {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.failures++
	state.lastFailure = f.now()
	return state.failures
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
