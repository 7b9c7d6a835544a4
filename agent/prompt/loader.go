package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/discovery.txt
	discoveryRaw string

	//go:embed template/ranking.txt
	rankingRaw string

	//go:embed template/support.txt
	supportRaw string
)

// PromptSet holds loaded prompt templates. Each template is a
// fmt.Sprintf format string; see the agent using it for the argument
// order.
type PromptSet struct {
	Discovery string
	Ranking   string
	Support   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Discovery: strings.TrimSpace(discoveryRaw),
		Ranking:   strings.TrimSpace(rankingRaw),
		Support:   strings.TrimSpace(supportRaw),
	}
}
