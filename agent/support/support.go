// Package support implements the support capability: a fixed FAQ table
// answered by keyword containment, a conversational generative answer
// constrained by the platform description, and a generic fixed reply when
// both miss. Every answer is tagged with the layer that produced it.
package support

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/datagora/datagora/agent/contract"
	llmx "github.com/datagora/datagora/agent/llm"
	promptx "github.com/datagora/datagora/agent/prompt"
)

// Answer sources, in decreasing order of confidence.
const (
	SourceFAQ        = "faq"
	SourceGenerative = "generative"
	SourceFallback   = "fallback"
)

const answerTokens = 300

type faqEntry struct {
	Keyword string
	Answer  string
}

// faqTable is deliberately a slice: the first matching keyword wins, so
// iteration order is part of the behavior.
var faqTable = []faqEntry{
	{"pricing", "Dataset prices vary based on size, quality, and content. You can filter by price range in the search."},
	{"download", "After purchase, you can download your dataset from the 'My Purchases' section."},
	{"refund", "Refunds are available within 7 days of purchase if the dataset doesn't meet the description."},
	{"format", "We support multiple formats including CSV, JSON, Parquet, and more. Check the dataset details for specific format."},
	{"quality", "All datasets go through quality checks. Ratings and reviews help you make informed decisions."},
}

type Agent struct {
	llm     llmx.Client
	prompts promptx.PromptSet
}

var _ contractx.Agent = (*Agent)(nil)

func New(client llmx.Client, prompts promptx.PromptSet) *Agent {
	return &Agent{llm: client, prompts: prompts}
}

func (a *Agent) Description() string {
	return "Provides user support and answers common questions"
}

func (a *Agent) Capabilities() []string {
	return []string{
		"faq_answering",
		"conversational_answers",
		"query_understanding",
		"suggestion_generation",
	}
}

func (a *Agent) Process(ctx context.Context, input contractx.Input, _ contractx.Context) contractx.Result {
	query := strings.ToLower(strings.TrimSpace(input.String("query")))
	if query == "" {
		return contractx.OK(map[string]any{
			"response":    "How can I help you today?",
			"suggestions": Topics(),
			"source":      SourceFallback,
		})
	}

	for _, entry := range faqTable {
		if strings.Contains(query, entry.Keyword) {
			return contractx.OK(map[string]any{
				"response":    entry.Answer,
				"suggestions": relatedTopics(entry.Keyword),
				"source":      SourceFAQ,
				"query":       query,
			})
		}
	}

	if answer, err := a.generateAnswer(ctx, query); err == nil {
		return contractx.OK(map[string]any{
			"response":    answer,
			"suggestions": []string{},
			"source":      SourceGenerative,
			"query":       query,
		})
	} else {
		log.Debug().Err(err).Msg("generative support answer failed")
	}

	return contractx.OK(map[string]any{
		"response":    "I can help you with pricing, downloads, refunds, formats, and quality questions. What would you like to know?",
		"suggestions": Topics(),
		"source":      SourceFallback,
		"query":       query,
	})
}

func (a *Agent) generateAnswer(ctx context.Context, query string) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("%w: no generative client", contractx.ErrModelInvoke)
	}
	text, err := a.llm.Generate(ctx, fmt.Sprintf(a.prompts.Support, query), answerTokens)
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(text)
	if answer == "" {
		return "", fmt.Errorf("%w: empty support answer", contractx.ErrMalformedOutput)
	}
	return answer, nil
}

// Topics lists the FAQ topics in table order.
func Topics() []string {
	out := make([]string, len(faqTable))
	for i, entry := range faqTable {
		out[i] = entry.Keyword
	}
	return out
}

func relatedTopics(matched string) []string {
	var out []string
	for _, entry := range faqTable {
		if entry.Keyword == matched {
			continue
		}
		out = append(out, entry.Keyword)
		if len(out) == 3 {
			break
		}
	}
	return out
}
