package hybrid

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeClient struct {
	generateText string
	generateErr  error
	embeds       map[string][]float64
	embedErr     error
	prompts      []string
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generateText, nil
}

func (f *fakeClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if vec, ok := f.embeds[text]; ok {
		return vec, nil
	}
	return []float64{0, 0, 1}, nil
}

func TestResolvePrimaryWins(t *testing.T) {
	t.Parallel()

	out, source := Resolve(context.Background(), "search",
		func(context.Context) (int, error) { return 42, nil },
		func(context.Context) int { t.Fatal("fallback must not run"); return 0 },
	)
	if out != 42 || source != SourcePrimary {
		t.Fatalf("unexpected outcome: %d, %s", out, source)
	}
}

func TestResolveFallbackOnError(t *testing.T) {
	t.Parallel()

	out, source := Resolve(context.Background(), "search",
		func(context.Context) (int, error) { return 0, errors.New("quota exceeded") },
		func(context.Context) int { return 7 },
	)
	if out != 7 || source != SourceFallback {
		t.Fatalf("unexpected outcome: %d, %s", out, source)
	}
}

func TestDiscoverCallFailureServesPlaceholders(t *testing.T) {
	t.Parallel()

	client := &fakeClient{generateErr: errors.New("network down")}
	out := Discover(context.Background(), client, "interest: %s, max %d", "weather")
	if len(out) == 0 {
		t.Fatal("expected placeholder suggestions on upstream failure")
	}
	for _, d := range out {
		if !strings.Contains(d.Relevance, "placeholder") {
			t.Fatalf("placeholder not labeled: %#v", d)
		}
	}
}

func TestDiscoverMalformedContentIsEmpty(t *testing.T) {
	t.Parallel()

	client := &fakeClient{generateText: "sorry, I don't know"}
	if out := Discover(context.Background(), client, "interest: %s, max %d", "weather"); len(out) != 0 {
		t.Fatalf("malformed content produced %d results", len(out))
	}
}

func TestDiscoverParsesAndCaps(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		generateText: `[{"title":"1"},{"title":"2"},{"title":"3"},{"title":"4"},{"title":"5"},{"title":"6"}]`,
	}
	out := Discover(context.Background(), client, "interest: %s, max %d", "weather")
	if len(out) != MaxExternalResults {
		t.Fatalf("expected %d results, got %d", MaxExternalResults, len(out))
	}
	if len(client.prompts) != 1 || !strings.Contains(client.prompts[0], "weather") {
		t.Fatalf("query not threaded into prompt: %v", client.prompts)
	}
}

func TestDiscoverNilClientServesPlaceholders(t *testing.T) {
	t.Parallel()

	if out := Discover(context.Background(), nil, "interest: %s, max %d", "weather"); len(out) == 0 {
		t.Fatal("expected placeholders with no client")
	}
}
