package scraper

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// candidate is a catalog link hypothesized to be the song page. Ephemeral:
// lives only for the duration of one resolution attempt.
type candidate struct {
	path string // site-relative, /@artist-slug/song-slug
	slug string // the song segment alone
}

// exclusionMarkers disqualify alternative renditions from scoring.
var exclusionMarkers = []string{"-instrumental", "-remix", "-cover"}

// collectCandidates walks the artist's catalog listing, following "next"
// links for at most maxPages pages, and gathers every link into the artist's
// own namespace that names a specific song. Pagination stops early once a
// collected song slug contains the plain title slug or matches every
// significant title word as a dash-delimited token.
func (s *Scraper) collectCandidates(artistSlug, titleSlug string, words []string) []candidate {
	prefix := "/@" + artistSlug + "/"
	pageURL := s.baseURL + "/@" + artistSlug

	var candidates []candidate
	seen := make(map[string]bool)

	for visited := 0; visited < s.maxPages && pageURL != ""; visited++ {
		doc, status, err := s.fetch(pageURL)
		if err != nil || doc == nil {
			slog.Debug("catalog page fetch failed", "url", pageURL, "status", status, "error", err)
			break
		}

		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			path := s.relativePath(href)
			if i := strings.IndexAny(path, "?#"); i >= 0 {
				path = path[:i]
			}
			if !strings.HasPrefix(path, prefix) {
				return
			}

			slug := strings.Trim(path[len(prefix):], "/")
			if slug == "" || strings.Contains(slug, "/") {
				// The artist root or something deeper than a song page.
				return
			}

			if seen[path] {
				return
			}
			seen[path] = true
			candidates = append(candidates, candidate{path: path, slug: slug})
		})

		if stopScanning(candidates, titleSlug, words) {
			slog.Debug("catalog scan matched early", "pages", visited+1, "candidates", len(candidates))
			return candidates
		}

		pageURL = s.nextPageURL(doc, artistSlug)
	}

	slog.Debug("catalog scan finished", "candidates", len(candidates))
	return candidates
}

// stopScanning reports whether any collected slug is already good enough
// evidence to stop paginating.
func stopScanning(candidates []candidate, titleSlug string, words []string) bool {
	for _, c := range candidates {
		if titleSlug != "" && strings.Contains(c.slug, titleSlug) {
			return true
		}
		if matchesAllWords(c.slug, words) {
			return true
		}
	}
	return false
}

// nextPageURL finds the catalog's explicit next-page link, staying within
// the artist's listing (the site paginates with an ?after= token).
func (s *Scraper) nextPageURL(doc *goquery.Document, artistSlug string) string {
	listingPrefix := "/@" + artistSlug

	var next string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if a.AttrOr("rel", "") != "next" && !strings.Contains(href, "?after=") {
			return true
		}

		// Stay on this artist's listing page: the path must be exactly it,
		// bar a query string. A bare prefix check would also accept other
		// artists whose slug extends this one.
		path := s.relativePath(href)
		rest := strings.TrimPrefix(path, listingPrefix)
		if rest == path || (rest != "" && !strings.HasPrefix(rest, "?")) {
			return true
		}

		next = s.baseURL + path
		return false
	})
	return next
}

// selectCandidate scores every non-excluded candidate and picks the winner.
// Score: one point per significant title word appearing as a whole
// dash-delimited token, plus a bonus of totalWords when the exact plain
// title slug is a substring of the song slug. Ties keep the candidate
// collected first. A best score of zero falls back to the first non-excluded
// candidate, or failing that the very first candidate regardless of
// exclusion. The score is returned so the caller can tell "weak pick" from
// "real evidence".
func selectCandidate(candidates []candidate, titleSlug string, words []string, totalWords int) (string, int) {
	if len(candidates) == 0 {
		return "", 0
	}

	bestPath := ""
	bestScore := 0
	firstNonExcluded := ""

	for _, c := range candidates {
		if isExcluded(c.slug) {
			continue
		}
		if firstNonExcluded == "" {
			firstNonExcluded = c.path
		}

		score := 0
		for _, w := range words {
			if hasDashToken(c.slug, w) {
				score++
			}
		}
		if titleSlug != "" && strings.Contains(c.slug, titleSlug) {
			score += totalWords
		}

		if score > bestScore {
			bestScore = score
			bestPath = c.path
		}
	}

	if bestScore == 0 {
		if firstNonExcluded != "" {
			return firstNonExcluded, 0
		}
		return candidates[0].path, 0
	}
	return bestPath, bestScore
}

func isExcluded(slug string) bool {
	for _, marker := range exclusionMarkers {
		if strings.Contains(slug, marker) {
			return true
		}
	}
	return false
}

// matchesAllWords reports whether every significant word appears in the slug
// as a whole dash-delimited token.
func matchesAllWords(slug string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !hasDashToken(slug, w) {
			return false
		}
	}
	return true
}

func hasDashToken(slug, word string) bool {
	for _, token := range strings.Split(slug, "-") {
		if token == word {
			return true
		}
	}
	return false
}
