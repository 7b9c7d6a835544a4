// Package hybrid implements the resolution pattern shared by the search,
// recommendation, and support agents: a primary strategy backed by the
// generative service, a deterministic store-only fallback that must always
// terminate, and bounded advisory results from outside the local catalog
// kept apart from verified inventory.
package hybrid

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Source tags which strategy produced a result so callers can tell
// confidence levels apart.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Resolve runs the primary strategy and, when it fails, the fallback.
// The fallback must be total: it may not call the generative service and
// may not fail. Primary failures never propagate; they are logged and
// absorbed here.
func Resolve[T any](ctx context.Context, task string, primary func(context.Context) (T, error), fallback func(context.Context) T) (T, Source) {
	out, err := primary(ctx)
	if err == nil {
		return out, SourcePrimary
	}
	log.Debug().Err(err).Str("task", task).Msg("primary strategy failed, using fallback")
	return fallback(ctx), SourceFallback
}
