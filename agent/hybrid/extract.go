package hybrid

import (
	"encoding/json"
	"strings"
)

// ExternalDataset is the fixed schema imposed on external discovery
// output. Anything the generative service returns that does not decode
// into an array of these is discarded wholesale.
type ExternalDataset struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Source       string `json:"source"`
	URL          string `json:"url"`
	Format       string `json:"format"`
	SizeEstimate string `json:"size_estimate"`
	Relevance    string `json:"relevance,omitempty"`
}

// MaxExternalResults caps advisory external suggestions per response.
const MaxExternalResults = 5

// DecodeJSONArray extracts and decodes the first JSON array embedded in
// free text. Models wrap arrays in code fences or prose; the contract is:
// strip fences, slice from the first '[' to the last ']', then decode.
func DecodeJSONArray(text string, v any) error {
	cleaned := stripCodeFences(text)
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return json.Unmarshal([]byte(cleaned), v) // let the decoder report it
	}
	return json.Unmarshal([]byte(cleaned[start:end+1]), v)
}

// ParseExternalDatasets parses untrusted generative output into the
// external dataset schema. Malformed content yields an empty list, never
// an error: parse failure and zero results are deliberately
// indistinguishable at this boundary.
func ParseExternalDatasets(text string) []ExternalDataset {
	var out []ExternalDataset
	if err := DecodeJSONArray(text, &out); err != nil {
		return nil
	}
	if len(out) > MaxExternalResults {
		out = out[:MaxExternalResults]
	}
	return out
}

// ParseIDList reads every contiguous digit run in the text, in order,
// deduplicated by first occurrence and capped at max. This is how ranked
// dataset ids come back from the generative service.
func ParseIDList(text string, max int) []int64 {
	var (
		out  []int64
		seen = make(map[int64]struct{})
		cur  int64
		open bool
	)
	flush := func() {
		if !open {
			return
		}
		if _, dup := seen[cur]; !dup {
			seen[cur] = struct{}{}
			out = append(out, cur)
		}
		cur, open = 0, false
	}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			cur = cur*10 + int64(r-'0')
			open = true
			continue
		}
		flush()
		if max > 0 && len(out) == max {
			return out
		}
	}
	flush()
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```")
	// the fence may carry a language tag, e.g. ```json
	if idx := strings.Index(cleaned, "\n"); idx != -1 {
		first := strings.TrimSpace(cleaned[:idx])
		if first != "" && !strings.ContainsAny(first, "[]{}") {
			cleaned = cleaned[idx+1:]
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
