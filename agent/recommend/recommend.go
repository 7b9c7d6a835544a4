// Package recommend implements the recommendation capability. For a known
// buyer it builds a profile from completed purchases and asks the
// generative service to rank a bounded candidate set; when that fails it
// recommends from the buyer's purchased categories, and for buyers with no
// history (or anonymous callers) it falls back to popularity. External
// suggestions are solicited separately and never mixed into the local
// list.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/datagora/datagora/agent/contract"
	hybridx "github.com/datagora/datagora/agent/hybrid"
	llmx "github.com/datagora/datagora/agent/llm"
	promptx "github.com/datagora/datagora/agent/prompt"
	storex "github.com/datagora/datagora/store"
)

const (
	// candidateCap bounds how many datasets are surfaced to the
	// generative ranker; the call cost scales with the candidate list.
	candidateCap = 50
	recommendCap = 10
	tagSample    = 10
	titleSample  = 5
	rankTokens   = 200

	// defaultInterest keeps external discovery from starving when the
	// buyer has no purchase history to describe.
	defaultInterest = "popular, well-rated datasets for data analysis"
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
	return "Recommends datasets based on user behavior and preferences"
}

func (a *Agent) Capabilities() []string {
	return []string{
		"ai_ranking",
		"collaborative_filtering",
		"popular_datasets",
		"category_based",
		"external_discovery",
	}
}

func (a *Agent) Process(ctx context.Context, input contractx.Input, _ contractx.Context) contractx.Result {
	if a.store == nil {
		return contractx.FailWith("Missing database session", map[string]any{
			"recommendations": []*storex.Dataset{},
		})
	}

	userID, hasUser := input.Int64("user_id")
	if !hasUser || userID == 0 {
		// No identity means no profile: popularity only, local only.
		local := a.popular(ctx)
		return contractx.OK(map[string]any{
			"recommendations": local,
			"count":           len(local),
			"source":          string(hybridx.SourceFallback),
		})
	}

	purchases, err := a.store.CompletedPurchases(ctx, userID)
	if err != nil {
		return contractx.Fail("load purchase history: %v", err)
	}

	profile := buildProfile(purchases)

	var (
		local  []*storex.Dataset
		source hybridx.Source
	)
	if len(purchases) == 0 {
		local = a.popular(ctx)
		source = hybridx.SourceFallback
	} else {
		candidates, err := a.store.FilterDatasets(ctx, storex.DatasetFilter{
			ExcludeIDs: profile.purchasedIDs,
			Limit:      candidateCap,
		})
		if err != nil {
			return contractx.Fail("load candidates: %v", err)
		}
		local, source = hybridx.Resolve(ctx, string(contractx.TaskRecommendation),
			func(ctx context.Context) ([]*storex.Dataset, error) {
				return a.rankWithModel(ctx, profile, candidates)
			},
			func(context.Context) []*storex.Dataset {
				return a.categoryFallback(ctx, profile, candidates)
			},
		)
	}
	log.Debug().Int("count", len(local)).Str("source", string(source)).Msg("recommendations generated")

	return contractx.OK(map[string]any{
		"recommendations":          local,
		"count":                    len(local),
		"source":                   string(source),
		"external_recommendations": hybridx.Discover(ctx, a.llm, a.prompts.Discovery, profile.interestSummary()),
	})
}

type profile struct {
	purchasedIDs []int64
	categories   []string
	tags         []string
	titles       []string
}

func buildProfile(purchases []*storex.Purchase) profile {
	var p profile
	seenCategory := make(map[string]struct{})
	seenTag := make(map[string]struct{})
	for _, purchase := range purchases {
		p.purchasedIDs = append(p.purchasedIDs, purchase.DatasetID)
		d := purchase.Dataset
		if d == nil {
			continue
		}
		if d.Category != "" {
			if _, dup := seenCategory[d.Category]; !dup {
				seenCategory[d.Category] = struct{}{}
				p.categories = append(p.categories, d.Category)
			}
		}
		for _, tag := range d.Tags {
			if len(p.tags) == tagSample {
				break
			}
			if _, dup := seenTag[tag]; !dup {
				seenTag[tag] = struct{}{}
				p.tags = append(p.tags, tag)
			}
		}
		if len(p.titles) < titleSample {
			p.titles = append(p.titles, d.Title)
		}
	}
	return p
}

func (p profile) interestSummary() string {
	var parts []string
	if len(p.categories) > 0 {
		parts = append(parts, "categories: "+strings.Join(p.categories, ", "))
	}
	if len(p.tags) > 0 {
		parts = append(parts, "topics: "+strings.Join(p.tags, ", "))
	}
	if len(parts) == 0 {
		return defaultInterest
	}
	return strings.Join(parts, "; ")
}

func (p profile) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Purchased categories: %s\n", orNone(p.categories))
	fmt.Fprintf(&b, "Topics of interest: %s\n", orNone(p.tags))
	fmt.Fprintf(&b, "Previously bought: %s", orNone(p.titles))
	return b.String()
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// rankWithModel asks the generative service to order the candidates for
// this buyer and resolves the returned id list back to datasets,
// preserving the service's ordering and skipping ids that do not resolve.
func (a *Agent) rankWithModel(ctx context.Context, p profile, candidates []*storex.Dataset) ([]*storex.Dataset, error) {
	if a.llm == nil {
		return nil, fmt.Errorf("%w: no generative client", contractx.ErrModelInvoke)
	}
	if len(candidates) == 0 {
		return nil, contractx.ErrNothingUsable
	}

	byID := make(map[int64]*storex.Dataset, len(candidates))
	lines := make([]string, len(candidates))
	for i, d := range candidates {
		byID[d.ID] = d
		lines[i] = fmt.Sprintf("%d: %s (%s) - %s", d.ID, d.Title, d.Category, truncate(d.Description, 120))
	}

	prompt := fmt.Sprintf(a.prompts.Ranking, p.describe(), strings.Join(lines, "\n"), recommendCap)
	text, err := a.llm.Generate(ctx, prompt, rankTokens)
	if err != nil {
		return nil, err
	}

	var out []*storex.Dataset
	for _, id := range hybridx.ParseIDList(text, recommendCap) {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no ranked ids resolved", contractx.ErrNothingUsable)
	}
	return out, nil
}

// categoryFallback recommends unpurchased datasets from the buyer's
// purchased categories, best rated first; with nothing to go on it
// degrades to popularity.
func (a *Agent) categoryFallback(ctx context.Context, p profile, candidates []*storex.Dataset) []*storex.Dataset {
	inCategory := make(map[string]struct{}, len(p.categories))
	for _, c := range p.categories {
		inCategory[c] = struct{}{}
	}

	var out []*storex.Dataset
	for _, d := range candidates {
		if _, ok := inCategory[d.Category]; ok {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return a.popular(ctx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].DownloadCount > out[j].DownloadCount
	})
	if len(out) > recommendCap {
		out = out[:recommendCap]
	}
	return out
}

// popular is the terminal fallback: active datasets by the weighted
// rating/download score. Total by construction; a store failure just
// yields an empty list.
func (a *Agent) popular(ctx context.Context) []*storex.Dataset {
	datasets, err := a.store.FilterDatasets(ctx, storex.DatasetFilter{})
	if err != nil {
		log.Debug().Err(err).Msg("popularity query failed")
		return []*storex.Dataset{}
	}
	sort.SliceStable(datasets, func(i, j int) bool {
		return datasets[i].RelevanceScore() > datasets[j].RelevanceScore()
	})
	if len(datasets) > recommendCap {
		datasets = datasets[:recommendCap]
	}
	return datasets
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
