package usecase

import (
	"sort"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

// mergeChunks turns the accumulated fan-out pool into the bounded,
// diverse candidate set handed to generation:
//  1. deduplicate by chunk ID, keeping the first occurrence so the
//     order of first appearance across sub-queries is stable;
//  2. stable-sort by relevance score descending (ties keep retrieval
//     order);
//  3. greedily admit chunks whose URL is under the per-URL cap, until
//     the overall cap is reached.
//
// Running the merge again over its own output is a no-op.
func mergeChunks(pool []domain.Chunk, maxTotal, maxPerURL int) []domain.Chunk {
	if len(pool) == 0 {
		return nil
	}
	if maxTotal <= 0 {
		maxTotal = 6
	}
	if maxPerURL <= 0 {
		maxPerURL = 3
	}

	seen := make(map[string]struct{}, len(pool))
	deduped := make([]domain.Chunk, 0, len(pool))
	for _, chunk := range pool {
		if chunk.ChunkID == "" {
			continue
		}
		if _, ok := seen[chunk.ChunkID]; ok {
			continue
		}
		seen[chunk.ChunkID] = struct{}{}
		deduped = append(deduped, chunk)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	urlCounts := make(map[string]int, len(deduped))
	merged := make([]domain.Chunk, 0, maxTotal)
	for _, chunk := range deduped {
		if len(merged) >= maxTotal {
			break
		}
		if urlCounts[chunk.URL] >= maxPerURL {
			continue
		}
		urlCounts[chunk.URL]++
		merged = append(merged, chunk)
	}
	return merged
}
