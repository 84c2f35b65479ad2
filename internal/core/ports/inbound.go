package ports

import (
	"context"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

// QueryAnswerer is the inbound contract for the corrective-RAG pipeline.
type QueryAnswerer interface {
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error)
}
