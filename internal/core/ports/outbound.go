package ports

import (
	"context"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

// InputGate validates a request and applies the per-user rate limit
// before any retrieval work begins.
type InputGate interface {
	ValidateAndLimit(userID, query string) domain.Verdict
}

// Embedder builds the query vector for semantic search.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore performs nearest-neighbor search over ingested chunks.
// Results carry no relevance score; the grader attaches one.
type VectorStore interface {
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.Chunk, error)
}

// PairScorer is the cross-text relevance scoring collaborator. It
// returns one raw logit per pair; callers normalize to [0,1].
type PairScorer interface {
	Predict(ctx context.Context, pairs []domain.ScorePair) ([]float64, error)
}

// AnswerGenerator produces the final natural-language answer. A failed
// generation across the whole model pool surfaces as
// domain.ErrGenerationExhausted, never as empty content.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (domain.Generation, error)
}

// WebSearcher is consulted only for the WEB_SEARCH and HYBRID actions.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]domain.WebResult, error)
}

// QueryDecomposer optionally splits a question into sub-queries for the
// fan-out stage. Absence means the original question is the sole
// sub-query.
type QueryDecomposer interface {
	Decompose(ctx context.Context, question string) ([]string, error)
}

// EventPublisher emits answered-query events for offline audit.
type EventPublisher interface {
	PublishQueryAnswered(ctx context.Context, event domain.QueryAnsweredEvent) error
}

// QueryLogStore persists answered-query audit records.
type QueryLogStore interface {
	Insert(ctx context.Context, event domain.QueryAnsweredEvent) error
}
