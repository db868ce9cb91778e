// Package resolver is the waterfall controller: cache, then the structured
// API, then the heuristic web tier, writing successful non-cache results
// back to the cache.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/metromatch/metromatch/internal/domain"
	"github.com/metromatch/metromatch/internal/normalize"
)

// ErrEmptyQuery is the only error Resolve returns: a programmer error,
// raised before any I/O. Ordinary not-found conditions are (nil, nil).
var ErrEmptyQuery = errors.New("artist and title must be non-empty")

// Cache is the persistence tier. Implementations must treat their own
// failures as misses; the resolver never sees them.
type Cache interface {
	Get(key domain.NormalizedKey) (*domain.BPMRecord, bool)
	Put(key domain.NormalizedKey, bpm float64, source domain.Source, metadata map[string]string)
}

// APIClient is the structured lookup tier.
type APIClient interface {
	Search(ctx context.Context, artist, title string) (*domain.ResolutionResult, bool)
}

// WebResolver is the heuristic web tier.
type WebResolver interface {
	Resolve(ctx context.Context, artist, title string) (*domain.ResolutionResult, bool)
}

// Resolver walks the enabled tiers in order. A nil tier is disabled for the
// lifetime of the instance; that is configuration, not an error.
type Resolver struct {
	cache Cache
	api   APIClient
	web   WebResolver
}

func New(cache Cache, api APIClient, web WebResolver) *Resolver {
	return &Resolver{
		cache: cache,
		api:   api,
		web:   web,
	}
}

// Resolve returns the BPM for a track, or (nil, nil) when every enabled tier
// misses. The first tier to produce a result short-circuits the rest; any
// non-cache result is upserted into the cache before returning.
func (r *Resolver) Resolve(ctx context.Context, artist, title string) (*domain.ResolutionResult, error) {
	if strings.TrimSpace(artist) == "" || strings.TrimSpace(title) == "" {
		return nil, ErrEmptyQuery
	}

	key := normalize.Key(artist, title)

	if r.cache != nil {
		if rec, ok := r.cache.Get(key); ok {
			slog.Info("BPM found in cache", "artist", artist, "title", title, "bpm", rec.BPM)
			return &domain.ResolutionResult{
				BPM:      rec.BPM,
				Source:   domain.SourceCache,
				Metadata: rec.Metadata,
			}, nil
		}
	}

	if r.api != nil {
		if result, ok := r.api.Search(ctx, artist, title); ok {
			slog.Info("BPM found via API", "artist", artist, "title", title, "bpm", result.BPM)
			r.store(key, result)
			return result, nil
		}
	}

	if r.web != nil {
		if result, ok := r.web.Resolve(ctx, artist, title); ok {
			slog.Info("BPM found via scraper", "artist", artist, "title", title, "bpm", result.BPM)
			r.store(key, result)
			return result, nil
		}
	}

	slog.Warn("could not find BPM", "artist", artist, "title", title)
	return nil, nil
}

func (r *Resolver) store(key domain.NormalizedKey, result *domain.ResolutionResult) {
	if r.cache == nil {
		return
	}
	r.cache.Put(key, result.BPM, result.Source, result.Metadata)
}
