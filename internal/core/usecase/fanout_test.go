package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

type fanoutEmbedderFake struct {
	failFor map[string]bool
}

func (f *fanoutEmbedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.failFor[text] {
		return nil, errors.New("embed fail")
	}
	return []float32{0.1, 0.2}, nil
}

// fanoutVectorFake returns chunks keyed by the call order, so each
// sub-query gets distinct chunk IDs.
type fanoutVectorFake struct {
	byVector map[string][]domain.Chunk
	calls    int
}

func (f *fanoutVectorFake) Search(_ context.Context, _ []float32, limit int) ([]domain.Chunk, error) {
	f.calls++
	chunks := make([]domain.Chunk, 0, limit)
	for i := 0; i < 2; i++ {
		chunks = append(chunks, domain.Chunk{
			ChunkID: fmt.Sprintf("call%d-chunk%d", f.calls, i),
			URL:     fmt.Sprintf("https://bdu.edu.vn/page%d", f.calls),
			Content: "text",
		})
	}
	return chunks, nil
}

type fanoutScorerFake struct{}

func (f *fanoutScorerFake) Predict(_ context.Context, pairs []domain.ScorePair) ([]float64, error) {
	logits := make([]float64, len(pairs))
	for i := range logits {
		logits[i] = 1.0
	}
	return logits, nil
}

func newTestRetriever(embedder *fanoutEmbedderFake, vector *fanoutVectorFake) *FanoutRetriever {
	grader := NewGrader(&fanoutScorerFake{}, DefaultGraderConfig())
	return NewFanoutRetriever(embedder, vector, grader, DefaultRetrieverConfig())
}

func TestRetrieveMultiMergesAcrossSubQueries(t *testing.T) {
	embedder := &fanoutEmbedderFake{}
	vector := &fanoutVectorFake{}
	retriever := newTestRetriever(embedder, vector)

	result := retriever.RetrieveMulti(context.Background(), []string{"q1", "q2"})

	if result.TotalRetrieved != 4 {
		t.Fatalf("expected 4 retrieved, got %d", result.TotalRetrieved)
	}
	if len(result.Merged) != 4 {
		t.Fatalf("expected 4 merged, got %d", len(result.Merged))
	}
	if result.FailedQueries != 0 {
		t.Fatalf("expected no failed queries, got %d", result.FailedQueries)
	}
	for _, chunk := range result.Merged {
		if chunk.SourceQuery == "" {
			t.Fatalf("merged chunk missing source query: %+v", chunk)
		}
		if chunk.RelevanceScore <= 0.5 {
			t.Fatalf("chunks must carry grading scores, got %f", chunk.RelevanceScore)
		}
	}
}

func TestRetrieveMultiPartialFailure(t *testing.T) {
	embedder := &fanoutEmbedderFake{failFor: map[string]bool{"q2": true}}
	vector := &fanoutVectorFake{}
	retriever := newTestRetriever(embedder, vector)

	result := retriever.RetrieveMulti(context.Background(), []string{"q1", "q2", "q3"})

	if result.FailedQueries != 1 {
		t.Fatalf("expected 1 failed query, got %d", result.FailedQueries)
	}
	if result.TotalRetrieved != 4 {
		t.Fatalf("expected 4 retrieved from surviving queries, got %d", result.TotalRetrieved)
	}
	if len(result.PerQuery["q2"]) != 0 {
		t.Fatalf("failed query must contribute zero chunks")
	}
}

func TestRetrieveMultiTotalFailure(t *testing.T) {
	embedder := &fanoutEmbedderFake{failFor: map[string]bool{"q1": true, "q2": true}}
	retriever := newTestRetriever(embedder, &fanoutVectorFake{})

	result := retriever.RetrieveMulti(context.Background(), []string{"q1", "q2"})

	if result.FailedQueries != 2 {
		t.Fatalf("expected 2 failed queries, got %d", result.FailedQueries)
	}
	if len(result.Merged) != 0 {
		t.Fatalf("total failure must yield an empty merged set")
	}
}

func TestRetrieveMultiNoSubQueries(t *testing.T) {
	retriever := newTestRetriever(&fanoutEmbedderFake{}, &fanoutVectorFake{})
	result := retriever.RetrieveMulti(context.Background(), nil)
	if len(result.Merged) != 0 || result.TotalRetrieved != 0 {
		t.Fatalf("no sub-queries means no retrieval, got %+v", result)
	}
}
