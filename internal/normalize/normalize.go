// Package normalize canonicalizes track queries into cache keys and derives
// the slug variants used for URL guessing against the BPM site.
package normalize

import (
	"regexp"
	"strings"

	"github.com/metromatch/metromatch/internal/domain"
)

var (
	featClause = regexp.MustCompile(`(?i)\s*\((?:feat|ft)\.?\s*([^)]*)\)`)
	slugStrip  = regexp.MustCompile(`[^a-z0-9-]+`)
	dashRuns   = regexp.MustCompile(`-{2,}`)
)

// Key canonicalizes an (artist, title) pair into the cache identity.
// Pure and total: queries differing only in case or surrounding whitespace
// normalize to the same key.
func Key(artist, title string) domain.NormalizedKey {
	return domain.NormalizedKey{
		Artist: strings.ToLower(strings.TrimSpace(artist)),
		Title:  strings.ToLower(strings.TrimSpace(title)),
	}
}

// Slug converts free text into the site's URL form: lower-cased, spaces
// replaced with dashes, anything outside [a-z0-9-] dropped, and runs of
// dashes collapsed to one. Diacritics are dropped, not transliterated, so
// titles that rely on them may simply fail to match.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugStrip.ReplaceAllString(s, "")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ArtistSlug derives the artist segment of a song page URL.
func ArtistSlug(artist string) string {
	return Slug(artist)
}

// TitleSlug derives the plain song segment: the featured-artist clause is
// stripped before slugging.
func TitleSlug(title string) string {
	return Slug(featClause.ReplaceAllString(title, ""))
}

// TitleVariants returns the ordered slug forms tried by the slug-variant
// retry strategy. Sites are inconsistent about how a "(feat. X)" clause is
// rendered in the URL, so the period-joined, double-dash and single-dash
// forms are tried before the plain form. Without a clause all four degrade
// to the same string; direct-fetch attempts deduplicate them.
func TitleVariants(title string) []string {
	base := TitleSlug(title)

	m := featClause.FindStringSubmatch(title)
	if m == nil {
		return []string{base, base, base, base}
	}

	feat := Slug(m[1])
	if feat == "" {
		return []string{base, base, base, base}
	}

	return []string{
		base + "-feat.-" + feat,
		base + "--feat-" + feat,
		base + "-feat-" + feat,
		base,
	}
}

// Words returns every slugged word of the title, featured-artist clause
// removed. Used for the catalog-scan score bonus.
func Words(title string) []string {
	base := featClause.ReplaceAllString(title, "")
	var words []string
	for _, w := range strings.Fields(base) {
		if w = Slug(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// SignificantWords filters Words down to those longer than two characters,
// the ones worth matching against catalog link slugs.
func SignificantWords(title string) []string {
	var words []string
	for _, w := range Words(title) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}
