// Package artwork fetches album cover URLs from the iTunes Search API.
package artwork

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultEndpoint = "https://itunes.apple.com/search"

// Lookup resolves cover art URLs for tracks and caches results so
// repeated queries for the same track stay local.
type Lookup struct {
	mu       sync.Mutex
	cache    map[string]string
	client   *http.Client
	endpoint string
}

func NewLookup() *Lookup {
	return &Lookup{
		cache: make(map[string]string),
		client: &http.Client{
			Timeout: 3 * time.Second,
		},
		endpoint: defaultEndpoint,
	}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ArtworkURL100 string `json:"artworkUrl100"`
}

// CoverURL returns a cover art URL for the given artist and title.
// Returns empty string on any failure. Artwork is decorative, so
// failures are logged rather than surfaced.
func (l *Lookup) CoverURL(artist, title string) string {
	key := artist + "|" + title
	l.mu.Lock()
	if u, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return u
	}
	l.mu.Unlock()

	artURL := l.fetch(artist, title)

	l.mu.Lock()
	l.cache[key] = artURL
	l.mu.Unlock()

	return artURL
}

func (l *Lookup) fetch(artist, title string) string {
	query := url.Values{
		"term":   {artist + " " + title},
		"entity": {"song"},
		"limit":  {"1"},
	}
	resp, err := l.client.Get(fmt.Sprintf("%s?%s", l.endpoint, query.Encode()))
	if err != nil {
		slog.Debug("artwork lookup failed", "artist", artist, "title", title, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("artwork lookup returned non-200", "status", resp.StatusCode)
		return ""
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ""
	}
	if len(result.Results) == 0 || result.Results[0].ArtworkURL100 == "" {
		return ""
	}

	// Upscale from 100x100 to 600x600
	return strings.Replace(result.Results[0].ArtworkURL100, "100x100bb", "600x600bb", 1)
}
