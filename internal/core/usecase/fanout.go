package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
	"github.com/nqhuy/admissions-assistant/internal/core/ports"
)

// RetrieverConfig bounds the fan-out stage.
type RetrieverConfig struct {
	TopKPerQuery    int
	MergeMaxChunks  int
	MergeMaxPerURL  int
	SubQueryTimeout time.Duration
}

func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopKPerQuery:    4,
		MergeMaxChunks:  6,
		MergeMaxPerURL:  3,
		SubQueryTimeout: 10 * time.Second,
	}
}

func (c RetrieverConfig) normalize() RetrieverConfig {
	out := c
	def := DefaultRetrieverConfig()
	if out.TopKPerQuery <= 0 {
		out.TopKPerQuery = def.TopKPerQuery
	}
	if out.MergeMaxChunks <= 0 {
		out.MergeMaxChunks = def.MergeMaxChunks
	}
	if out.MergeMaxPerURL <= 0 {
		out.MergeMaxPerURL = def.MergeMaxPerURL
	}
	if out.SubQueryTimeout <= 0 {
		out.SubQueryTimeout = def.SubQueryTimeout
	}
	return out
}

// MultiResult is the fan-out output: the merged candidate set plus
// per-sub-query detail for diagnostics.
type MultiResult struct {
	Merged         []domain.Chunk
	PerQuery       map[string][]domain.Chunk
	TotalRetrieved int
	FailedQueries  int
}

// FanoutRetriever issues retrieval for each sub-query, grades the
// results, and merges them into a bounded diverse set.
type FanoutRetriever struct {
	embedder ports.Embedder
	vector   ports.VectorStore
	grader   *Grader
	cfg      RetrieverConfig
}

func NewFanoutRetriever(
	embedder ports.Embedder,
	vector ports.VectorStore,
	grader *Grader,
	cfg RetrieverConfig,
) *FanoutRetriever {
	return &FanoutRetriever{
		embedder: embedder,
		vector:   vector,
		grader:   grader,
		cfg:      cfg.normalize(),
	}
}

// RetrieveMulti runs one retrieval per sub-query concurrently. Results
// land in per-index slots so the pool order (and therefore the merge's
// first-occurrence dedup) is deterministic regardless of goroutine
// scheduling. A failed sub-query contributes zero chunks; the stage
// fails as a whole only in the sense that all-empty input yields an
// empty MultiResult, which routes the pipeline to web search.
func (r *FanoutRetriever) RetrieveMulti(ctx context.Context, subQueries []string) MultiResult {
	slots := make([][]domain.Chunk, len(subQueries))
	errs := make([]error, len(subQueries))

	var wg sync.WaitGroup
	for i, subQuery := range subQueries {
		wg.Add(1)
		go func(i int, subQuery string) {
			defer wg.Done()
			queryCtx, cancel := context.WithTimeout(ctx, r.cfg.SubQueryTimeout)
			defer cancel()
			chunks, err := r.retrieveOne(queryCtx, subQuery)
			if err != nil {
				errs[i] = err
				return
			}
			slots[i] = chunks
		}(i, subQuery)
	}
	wg.Wait()

	result := MultiResult{
		PerQuery: make(map[string][]domain.Chunk, len(subQueries)),
	}
	pool := make([]domain.Chunk, 0, len(subQueries)*r.cfg.TopKPerQuery)
	for i, subQuery := range subQueries {
		if errs[i] != nil {
			result.FailedQueries++
			slog.Warn("sub_query_retrieval_failed", "sub_query", subQuery, "error", errs[i])
			result.PerQuery[subQuery] = nil
			continue
		}
		result.PerQuery[subQuery] = slots[i]
		result.TotalRetrieved += len(slots[i])
		pool = append(pool, slots[i]...)
	}

	result.Merged = mergeChunks(pool, r.cfg.MergeMaxChunks, r.cfg.MergeMaxPerURL)
	return result
}

// retrieveOne is the single-query path: embed, search, grade, tag.
func (r *FanoutRetriever) retrieveOne(ctx context.Context, subQuery string) ([]domain.Chunk, error) {
	vector, err := r.embedder.EmbedQuery(ctx, subQuery)
	if err != nil {
		return nil, fmt.Errorf("embed sub-query: %w", err)
	}

	chunks, err := r.vector.Search(ctx, vector, r.cfg.TopKPerQuery)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	scored, err := r.grader.Score(ctx, subQuery, chunks)
	if err != nil {
		return nil, fmt.Errorf("grade sub-query results: %w", err)
	}

	for i := range scored {
		scored[i].SourceQuery = subQuery
	}
	return scored, nil
}
