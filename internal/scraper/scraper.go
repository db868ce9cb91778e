// Package scraper is the heuristic web resolution tier: when the cache and
// the structured API both miss, it guesses song-page URLs, browses the
// artist's paginated catalog and scores candidate links, then extracts a
// tempo from whatever page it lands on.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"github.com/metromatch/metromatch/internal/domain"
	"github.com/metromatch/metromatch/internal/extract"
	"github.com/metromatch/metromatch/internal/normalize"
)

const (
	fetchTimeout    = 15 * time.Second
	defaultMaxPages = 15

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Scraper struct {
	baseURL  string
	maxPages int
	browser  BrowserSearcher // nil when the capability is absent
}

// New builds the tier against baseURL. browser may be nil; the rendered
// search strategy is then skipped.
func New(baseURL string, maxPages int, browser BrowserSearcher) *Scraper {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Scraper{
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxPages: maxPages,
		browser:  browser,
	}
}

// Resolve runs the strict A→B→C→D fallback chain. Each strategy is tried
// exactly once; the first plausible extracted BPM wins and nothing
// backtracks. A full miss returns (nil, false), never an error.
func (s *Scraper) Resolve(ctx context.Context, artist, title string) (*domain.ResolutionResult, bool) {
	artistSlug := normalize.ArtistSlug(artist)
	titleSlug := normalize.TitleSlug(title)
	if artistSlug == "" {
		slog.Warn("artist produced an empty slug, nothing to scrape", "artist", artist)
		return nil, false
	}

	// Strategy A: rendered UI search, best-effort.
	if s.browser != nil {
		if bpm, ok := s.browser.Attempt(ctx, artist, title); ok {
			slog.Info("resolved via rendered search", "artist", artist, "title", title, "bpm", bpm)
			return s.result(bpm, "browser", ""), true
		}
	}

	// Strategy B: direct URL guess from the plain slugs.
	if titleSlug != "" {
		songURL := fmt.Sprintf("%s/@%s/%s", s.baseURL, artistSlug, titleSlug)
		doc, status, err := s.fetch(songURL)
		if err == nil && doc != nil {
			if bpm, ok := extract.BPM(doc); ok {
				slog.Info("resolved via direct URL", "url", songURL, "bpm", bpm)
				return s.result(bpm, "direct", songURL), true
			}
		} else if status == http.StatusNotFound {
			slog.Debug("direct URL not found, scanning catalog", "url", songURL)
		} else {
			slog.Debug("direct fetch failed", "url", songURL, "status", status, "error", err)
		}
	}

	// Strategy C: paginated catalog scan with scoring.
	words := normalize.SignificantWords(title)
	candidates := s.collectCandidates(artistSlug, titleSlug, words)
	selected, bestScore := selectCandidate(candidates, titleSlug, words, len(normalize.Words(title)))
	if selected != "" {
		candidateURL := s.baseURL + selected
		slog.Info("selected catalog candidate", "path", selected, "score", bestScore)
		if doc, _, err := s.fetch(candidateURL); err == nil && doc != nil {
			if bpm, ok := extract.BPM(doc); ok {
				return s.result(bpm, "catalog", candidateURL), true
			}
		}
	}

	// Strategy D: slug-variant retry, only without catalog evidence.
	if len(candidates) == 0 || bestScore == 0 {
		if res, ok := s.tryVariants(artistSlug, title); ok {
			return res, true
		}
	}

	slog.Debug("web resolution exhausted", "artist", artist, "title", title)
	return nil, false
}

// tryVariants fetches each ordered slug variant until one both fetches and
// yields a plausible BPM. Degenerate duplicates (no feat clause) are only
// attempted once.
func (s *Scraper) tryVariants(artistSlug, title string) (*domain.ResolutionResult, bool) {
	seen := make(map[string]bool)
	for _, variant := range normalize.TitleVariants(title) {
		if variant == "" || seen[variant] {
			continue
		}
		seen[variant] = true

		variantURL := fmt.Sprintf("%s/@%s/%s", s.baseURL, artistSlug, variant)
		doc, _, err := s.fetch(variantURL)
		if err != nil || doc == nil {
			continue
		}
		if bpm, ok := extract.BPM(doc); ok {
			slog.Info("resolved via slug variant", "url", variantURL, "bpm", bpm)
			return s.result(bpm, "variant", variantURL), true
		}
	}
	return nil, false
}

func (s *Scraper) result(bpm float64, strategy, pageURL string) *domain.ResolutionResult {
	metadata := map[string]string{"strategy": strategy}
	if pageURL != "" {
		metadata["url"] = pageURL
	}
	return &domain.ResolutionResult{
		BPM:      bpm,
		Source:   domain.SourceScraper,
		Metadata: metadata,
	}
}

// fetch GETs a page and parses it. The collector is rebuilt per request so
// callbacks never leak state between fetches. Non-2xx responses surface as
// an error with the status code alongside.
func (s *Scraper) fetch(pageURL string) (*goquery.Document, int, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(fetchTimeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, status, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, status, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, status, nil
}

// relativePath reduces an href to a site-relative path, or "" when it points
// off-site.
func (s *Scraper) relativePath(href string) string {
	if strings.HasPrefix(href, s.baseURL) {
		href = href[len(s.baseURL):]
	}
	if strings.HasPrefix(href, "/") {
		return href
	}
	return ""
}
