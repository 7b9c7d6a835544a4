package hybrid

import (
	"context"
	"fmt"
	"math"
	"sort"

	contractx "github.com/datagora/datagora/agent/contract"
	llmx "github.com/datagora/datagora/agent/llm"
)

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either has no magnitude or the dimensions disagree.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankBySimilarity embeds the query and every document and returns the
// document indices ordered by descending cosine similarity to the query.
// Ties keep the original document order. Any embedding failure aborts the
// whole ranking; callers fall back to deterministic ordering.
func RankBySimilarity(ctx context.Context, client llmx.Client, query string, docs []string) ([]int, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: no generative client", contractx.ErrModelInvoke)
	}
	queryVec, err := client.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scores := make([]float64, len(docs))
	for i, doc := range docs {
		vec, err := client.Embed(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("embed document %d: %w", i, err)
		}
		scores[i] = CosineSimilarity(queryVec, vec)
	}

	order := make([]int, len(docs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	return order, nil
}
