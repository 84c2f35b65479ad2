package security

import (
	"fmt"
	"time"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

// Config holds the gate thresholds. All of them are deployment tunables.
type Config struct {
	MinLength    int
	MaxLength    int
	MaxRepeatRun int

	Window      time.Duration
	MaxRequests int
	ShardCount  int
}

func DefaultConfig() Config {
	return Config{
		MinLength:    3,
		MaxLength:    500,
		MaxRepeatRun: 10,
		Window:       60 * time.Second,
		MaxRequests:  10,
		ShardCount:   32,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.MinLength <= 0 {
		out.MinLength = def.MinLength
	}
	if out.MaxLength <= out.MinLength {
		out.MaxLength = def.MaxLength
	}
	if out.MaxRepeatRun <= 0 {
		out.MaxRepeatRun = def.MaxRepeatRun
	}
	if out.Window <= 0 {
		out.Window = def.Window
	}
	if out.MaxRequests <= 0 {
		out.MaxRequests = def.MaxRequests
	}
	if out.ShardCount <= 0 {
		out.ShardCount = def.ShardCount
	}
	return out
}

// Gate is the inbound request gate: length bounds, abuse signatures,
// repeated-character spam, then the per-user sliding-window limit.
// Checks short-circuit on first failure; only an accepted request
// consumes rate-limit budget.
type Gate struct {
	cfg        Config
	signatures []compiledSignature
	limiter    *slidingLimiter
}

func NewGate(cfg Config, signatures []Signature) (*Gate, error) {
	cfg = cfg.normalize()
	if len(signatures) == 0 {
		signatures = DefaultSignatures()
	}
	compiled, err := compileSignatures(signatures)
	if err != nil {
		return nil, err
	}
	return &Gate{
		cfg:        cfg,
		signatures: compiled,
		limiter:    newSlidingLimiter(cfg.Window, cfg.MaxRequests, cfg.ShardCount, nil),
	}, nil
}

// withClock swaps the limiter clock. Test hook.
func (g *Gate) withClock(now func() time.Time) *Gate {
	g.limiter = newSlidingLimiter(g.cfg.Window, g.cfg.MaxRequests, g.cfg.ShardCount, now)
	return g
}

func (g *Gate) ValidateAndLimit(userID, query string) domain.Verdict {
	length := len([]rune(query))
	if length < g.cfg.MinLength {
		return domain.Verdict{Reason: "too short"}
	}
	if length > g.cfg.MaxLength {
		return domain.Verdict{Reason: "too long"}
	}

	for _, sig := range g.signatures {
		if sig.pattern.MatchString(query) {
			return domain.Verdict{Reason: fmt.Sprintf("blocked pattern: %s", sig.name)}
		}
	}

	if run := longestRepeatRun(query); run > g.cfg.MaxRepeatRun {
		return domain.Verdict{Reason: "spam pattern"}
	}

	if !g.limiter.Allow(userID) {
		return domain.Verdict{RateLimited: true, Reason: "rate limit exceeded"}
	}

	return domain.Verdict{Allowed: true}
}

// longestRepeatRun returns the longest run of one repeated rune.
func longestRepeatRun(s string) int {
	var prev rune
	run, longest := 0, 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
