package hybrid

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	llmx "github.com/datagora/datagora/agent/llm"
)

const discoveryMaxTokens = 800

// Discover solicits advisory dataset suggestions from outside the local
// catalog. Its results are unverified and must never be merged into a
// local ranking.
//
// Failure handling distinguishes two degraded states: when the upstream
// call itself fails the caller gets fixed, clearly-labeled placeholder
// suggestions (the UI still has something to show); when the call
// succeeds but the content is unusable the caller gets an empty list,
// same as a legitimate zero-result answer.
func Discover(ctx context.Context, client llmx.Client, promptTemplate, query string) []ExternalDataset {
	if client == nil {
		return PlaceholderSuggestions(query)
	}

	prompt := fmt.Sprintf(promptTemplate, query, MaxExternalResults)
	text, err := client.Generate(ctx, prompt, discoveryMaxTokens)
	if err != nil {
		log.Debug().Err(err).Msg("external discovery call failed, serving placeholders")
		return PlaceholderSuggestions(query)
	}
	return ParseExternalDatasets(text)
}

// PlaceholderSuggestions is the fixed degraded-mode answer for external
// discovery: pointers at well-known public portals, labeled so the UI can
// tell them from real suggestions.
func PlaceholderSuggestions(query string) []ExternalDataset {
	relevance := fmt.Sprintf("placeholder while external discovery is unavailable for %q", query)
	return []ExternalDataset{
		{
			Title:        "Kaggle Datasets",
			Description:  "Community-published datasets across most domains, searchable by keyword.",
			Source:       "Kaggle",
			URL:          "https://www.kaggle.com/datasets",
			Format:       "varies",
			SizeEstimate: "varies",
			Relevance:    relevance,
		},
		{
			Title:        "data.gov",
			Description:  "Open data from US federal, state, and local government agencies.",
			Source:       "US Government",
			URL:          "https://catalog.data.gov/dataset",
			Format:       "varies",
			SizeEstimate: "varies",
			Relevance:    relevance,
		},
		{
			Title:        "UCI Machine Learning Repository",
			Description:  "Curated datasets widely used for machine learning benchmarks.",
			Source:       "UC Irvine",
			URL:          "https://archive.ics.uci.edu",
			Format:       "CSV",
			SizeEstimate: "varies",
			Relevance:    relevance,
		},
	}
}
