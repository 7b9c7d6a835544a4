// Package llm defines the contract the agents impose on the external
// generative service. Both operations are single bounded attempts: no
// retries here, callers own the fallback.
package llm

import "context"

type Client interface {
	// Generate returns free text for a prompt. The text is untrusted:
	// callers must parse it defensively.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	// Embed returns an embedding vector for a text.
	Embed(ctx context.Context, text string) ([]float64, error)
}
