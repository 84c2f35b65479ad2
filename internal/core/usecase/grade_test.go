package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

type scorerFake struct {
	pairs  []domain.ScorePair
	logits []float64
	err    error
}

func (f *scorerFake) Predict(_ context.Context, pairs []domain.ScorePair) ([]float64, error) {
	f.pairs = pairs
	if f.err != nil {
		return nil, f.err
	}
	return f.logits, nil
}

func TestGraderScoreNormalizesLogits(t *testing.T) {
	scorer := &scorerFake{logits: []float64{0, 4, -4}}
	grader := NewGrader(scorer, DefaultGraderConfig())

	scored, err := grader.Score(context.Background(), "q", []domain.Chunk{
		{ChunkID: "a", Content: "x"},
		{ChunkID: "b", Content: "y"},
		{ChunkID: "c", Content: "z"},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(scored[0].RelevanceScore-0.5) > 1e-9 {
		t.Fatalf("logit 0 should map to 0.5, got %f", scored[0].RelevanceScore)
	}
	if scored[1].RelevanceScore <= scored[0].RelevanceScore {
		t.Fatalf("positive logit must score above zero logit")
	}
	if scored[2].RelevanceScore >= scored[0].RelevanceScore {
		t.Fatalf("negative logit must score below zero logit")
	}
	for _, chunk := range scored {
		if chunk.RelevanceScore < 0 || chunk.RelevanceScore > 1 {
			t.Fatalf("score out of [0,1]: %f", chunk.RelevanceScore)
		}
	}
}

func TestGraderScorePrefersFullContentAndTruncates(t *testing.T) {
	scorer := &scorerFake{logits: []float64{1}}
	grader := NewGrader(scorer, GraderConfig{MaxScoreRunes: 10})

	long := strings.Repeat("à", 25)
	_, err := grader.Score(context.Background(), "q", []domain.Chunk{
		{ChunkID: "a", Content: "short", FullContent: long},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	got := scorer.pairs[0].Text
	if len([]rune(got)) != 10 {
		t.Fatalf("expected 10 runes sent to scorer, got %d", len([]rune(got)))
	}
	if !strings.HasPrefix(long, got) {
		t.Fatalf("scorer text must be a prefix of the full content")
	}
}

func TestGraderScoreLengthMismatch(t *testing.T) {
	grader := NewGrader(&scorerFake{logits: []float64{1}}, DefaultGraderConfig())
	_, err := grader.Score(context.Background(), "q", []domain.Chunk{
		{ChunkID: "a"}, {ChunkID: "b"},
	})
	if err == nil {
		t.Fatalf("expected error on score/chunk count mismatch")
	}
}

func TestGraderScoreEmptyInput(t *testing.T) {
	scorer := &scorerFake{}
	grader := NewGrader(scorer, DefaultGraderConfig())
	scored, err := grader.Score(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scored) != 0 {
		t.Fatalf("expected no chunks, got %d", len(scored))
	}
	if scorer.pairs != nil {
		t.Fatalf("scorer must not be called on empty input")
	}
}

func TestGraderScorerError(t *testing.T) {
	grader := NewGrader(&scorerFake{err: errors.New("scorer down")}, DefaultGraderConfig())
	_, err := grader.Score(context.Background(), "q", []domain.Chunk{{ChunkID: "a"}})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestGraderClassifyBuckets(t *testing.T) {
	grader := NewGrader(nil, GraderConfig{HighThreshold: 0.5, LowThreshold: 0.2})

	graded := grader.Classify([]domain.Chunk{
		{ChunkID: "hi", RelevanceScore: 0.9},
		{ChunkID: "edge-high", RelevanceScore: 0.5},
		{ChunkID: "mid", RelevanceScore: 0.3},
		{ChunkID: "edge-low", RelevanceScore: 0.2},
		{ChunkID: "lo", RelevanceScore: 0.1},
	})

	if len(graded.Correct) != 2 {
		t.Fatalf("expected 2 correct, got %d", len(graded.Correct))
	}
	if len(graded.Ambiguous) != 2 {
		t.Fatalf("expected 2 ambiguous, got %d", len(graded.Ambiguous))
	}
	if len(graded.Incorrect) != 1 {
		t.Fatalf("expected 1 incorrect, got %d", len(graded.Incorrect))
	}
	if graded.Correct[1].ChunkID != "edge-high" {
		t.Fatalf("score exactly at the high threshold must be correct")
	}
	if graded.Ambiguous[1].ChunkID != "edge-low" {
		t.Fatalf("score exactly at the low threshold must be ambiguous")
	}
}

func TestSigmoidMonotonic(t *testing.T) {
	prev := -1.0
	for x := -8.0; x <= 8.0; x += 0.5 {
		y := sigmoid(x)
		if y <= prev {
			t.Fatalf("sigmoid not strictly increasing at x=%f", x)
		}
		prev = y
	}
}
