package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
	"github.com/nqhuy/admissions-assistant/internal/core/ports"
)

// GraderConfig holds the grading thresholds and the scorer input bound.
// Thresholds are the primary quality-tuning lever and are always loaded
// from configuration, never hard-coded at call sites.
type GraderConfig struct {
	HighThreshold float64
	LowThreshold  float64
	MaxScoreRunes int
}

func DefaultGraderConfig() GraderConfig {
	return GraderConfig{
		HighThreshold: 0.5,
		LowThreshold:  0.2,
		MaxScoreRunes: 1000,
	}
}

func (c GraderConfig) normalize() GraderConfig {
	out := c
	def := DefaultGraderConfig()
	if out.HighThreshold <= 0 || out.HighThreshold > 1 {
		out.HighThreshold = def.HighThreshold
	}
	if out.LowThreshold < 0 || out.LowThreshold >= out.HighThreshold {
		out.LowThreshold = def.LowThreshold
	}
	if out.LowThreshold >= out.HighThreshold {
		out.LowThreshold = out.HighThreshold / 2
	}
	if out.MaxScoreRunes <= 0 {
		out.MaxScoreRunes = def.MaxScoreRunes
	}
	return out
}

// Grader scores chunks against a query via the external pairwise scorer
// and classifies them into relevance buckets.
type Grader struct {
	scorer ports.PairScorer
	cfg    GraderConfig
}

func NewGrader(scorer ports.PairScorer, cfg GraderConfig) *Grader {
	return &Grader{scorer: scorer, cfg: cfg.normalize()}
}

// Score computes a normalized relevance score per chunk and attaches it.
// The scorer returns raw logits; logistic normalization maps them to
// [0,1]. Text is truncated to bound scorer latency, preferring the full
// content when present.
func (g *Grader) Score(ctx context.Context, query string, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	pairs := make([]domain.ScorePair, 0, len(chunks))
	for _, chunk := range chunks {
		pairs = append(pairs, domain.ScorePair{
			Query: query,
			Text:  truncateRunes(chunk.ScoreText(), g.cfg.MaxScoreRunes),
		})
	}

	logits, err := g.scorer.Predict(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("predict relevance: %w", err)
	}
	if len(logits) != len(chunks) {
		return nil, fmt.Errorf("scorer returned %d scores for %d chunks", len(logits), len(chunks))
	}

	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	for i := range out {
		out[i].RelevanceScore = sigmoid(logits[i])
	}
	return out, nil
}

// Grade scores the chunks and partitions them by threshold.
func (g *Grader) Grade(ctx context.Context, query string, chunks []domain.Chunk) (domain.GradedChunks, error) {
	scored, err := g.Score(ctx, query, chunks)
	if err != nil {
		return domain.GradedChunks{}, err
	}
	return g.Classify(scored), nil
}

// Classify partitions already-scored chunks. score >= high is correct,
// low <= score < high is ambiguous, score < low is incorrect.
func (g *Grader) Classify(chunks []domain.Chunk) domain.GradedChunks {
	var graded domain.GradedChunks
	for _, chunk := range chunks {
		switch {
		case chunk.RelevanceScore >= g.cfg.HighThreshold:
			graded.Correct = append(graded.Correct, chunk)
		case chunk.RelevanceScore >= g.cfg.LowThreshold:
			graded.Ambiguous = append(graded.Ambiguous, chunk)
		default:
			graded.Incorrect = append(graded.Incorrect, chunk)
		}
	}
	return graded
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
