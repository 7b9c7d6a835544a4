// Package search implements the dataset search capability: structured
// filters against the catalog, semantic ranking when a free-text query is
// present, deterministic sort-key ranking as the fallback, and advisory
// external discovery alongside the local results.
package search

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	contractx "github.com/datagora/datagora/agent/contract"
	hybridx "github.com/datagora/datagora/agent/hybrid"
	llmx "github.com/datagora/datagora/agent/llm"
	promptx "github.com/datagora/datagora/agent/prompt"
	storex "github.com/datagora/datagora/store"
)

type Agent struct {
	store   storex.Store
	llm     llmx.Client
	prompts promptx.PromptSet
}

var _ contractx.Agent = (*Agent)(nil)

func New(store storex.Store, client llmx.Client, prompts promptx.PromptSet) *Agent {
	return &Agent{store: store, llm: client, prompts: prompts}
}

func (a *Agent) Description() string {
	return "Searches and retrieves datasets based on user queries"
}

func (a *Agent) Capabilities() []string {
	return []string{
		"text_search",
		"semantic_ranking",
		"category_filter",
		"tag_filter",
		"price_filter",
		"rating_filter",
		"sorting",
		"pagination",
		"external_discovery",
	}
}

func (a *Agent) Process(ctx context.Context, input contractx.Input, _ contractx.Context) contractx.Result {
	if a.store == nil {
		return contractx.FailWith("Missing required parameters", map[string]any{
			"datasets": []*storex.Dataset{},
			"total":    0,
		})
	}
	params := ParamsFromInput(input)

	candidates, err := a.store.FilterDatasets(ctx, storex.DatasetFilter{
		Category:  params.Category,
		Tags:      params.Tags,
		MinPrice:  params.MinPrice,
		MaxPrice:  params.MaxPrice,
		MinRating: params.MinRating,
	})
	if err != nil {
		return contractx.Fail("search datasets: %v", err)
	}

	var (
		ranked []*storex.Dataset
		source hybridx.Source
	)
	if params.Query != "" {
		ranked, source = hybridx.Resolve(ctx, string(contractx.TaskSearch),
			func(ctx context.Context) ([]*storex.Dataset, error) {
				return a.rankSemantically(ctx, params.Query, candidates)
			},
			func(context.Context) []*storex.Dataset {
				return sortDatasets(candidates, params.SortBy)
			},
		)
	} else {
		ranked = sortDatasets(candidates, params.SortBy)
		source = hybridx.SourceFallback
	}

	total := len(ranked)
	page := paginate(ranked, params.Page, params.PageSize)
	log.Debug().Int("total", total).Str("query", params.Query).Msg("search completed")

	fields := map[string]any{
		"datasets":  page,
		"total":     total,
		"page":      params.Page,
		"page_size": params.PageSize,
		"ranking":   string(source),
	}
	if params.Query != "" {
		// Advisory only: external suggestions ride alongside the local
		// page, never inside it.
		fields["external_datasets"] = hybridx.Discover(ctx, a.llm, a.prompts.Discovery, params.Query)
	}
	return contractx.OK(fields)
}

func (a *Agent) rankSemantically(ctx context.Context, query string, candidates []*storex.Dataset) ([]*storex.Dataset, error) {
	docs := make([]string, len(candidates))
	for i, d := range candidates {
		docs[i] = d.SearchText()
	}
	order, err := hybridx.RankBySimilarity(ctx, a.llm, query, docs)
	if err != nil {
		return nil, err
	}
	ranked := make([]*storex.Dataset, len(candidates))
	for i, idx := range order {
		ranked[i] = candidates[idx]
	}
	return ranked, nil
}

func sortDatasets(datasets []*storex.Dataset, key SortKey) []*storex.Dataset {
	out := append([]*storex.Dataset(nil), datasets...)
	switch key {
	case SortPrice:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortDate:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	default: // relevance
		sort.SliceStable(out, func(i, j int) bool { return out[i].RelevanceScore() > out[j].RelevanceScore() })
	}
	return out
}

func paginate(datasets []*storex.Dataset, page, pageSize int) []*storex.Dataset {
	start := (page - 1) * pageSize
	if start >= len(datasets) {
		return []*storex.Dataset{}
	}
	end := start + pageSize
	if end > len(datasets) {
		end = len(datasets)
	}
	return datasets[start:end]
}
