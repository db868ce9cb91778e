// Package pipeline assembles the resolution waterfall from configuration.
package pipeline

import (
	"log/slog"

	"github.com/metromatch/metromatch/config"
	"github.com/metromatch/metromatch/internal/cache"
	"github.com/metromatch/metromatch/internal/getsongbpm"
	"github.com/metromatch/metromatch/internal/resolver"
	"github.com/metromatch/metromatch/internal/scraper"
)

// Pipeline bundles the wired resolver with the cache store it shares,
// so callers can manage cache entries and close the store on shutdown.
type Pipeline struct {
	Resolver *resolver.Resolver
	Cache    *cache.Store
}

// Build wires the configured tiers into a resolver. A tier left
// unconfigured, or whose construction fails, is disabled rather than
// failing the build.
func Build(cfg *config.Config) *Pipeline {
	var store *cache.Store
	var cacheTier resolver.Cache
	if cfg.Cache.Path != "" {
		var err error
		store, err = cache.New(cfg.Cache.Path)
		if err != nil {
			// The cache is an accelerator, not a dependency: resolution
			// proceeds through the remaining tiers without it.
			slog.Error("cache tier disabled: store failed to open", "path", cfg.Cache.Path, "error", err)
			store = nil
		} else {
			cacheTier = store
		}
	} else {
		slog.Info("cache tier disabled: no cache path configured")
	}

	var apiTier resolver.APIClient
	if cfg.API.Key != "" {
		apiTier = getsongbpm.New(cfg.API.Key, cfg.API.BaseURL)
	} else {
		slog.Info("api tier disabled: no api key configured")
	}

	var webTier resolver.WebResolver
	if cfg.Scraper.Enabled {
		var browser scraper.BrowserSearcher
		if cfg.Scraper.UseBrowser && scraper.BrowserAvailable() {
			browser = scraper.NewChromeSearcher(cfg.Scraper.BaseURL)
		}
		webTier = scraper.New(cfg.Scraper.BaseURL, cfg.Scraper.MaxPages, browser)
	} else {
		slog.Info("scraper tier disabled")
	}

	return &Pipeline{
		Resolver: resolver.New(cacheTier, apiTier, webTier),
		Cache:    store,
	}
}

// Close releases the pipeline's resources.
func (p *Pipeline) Close() error {
	if p.Cache != nil {
		return p.Cache.Close()
	}
	return nil
}
