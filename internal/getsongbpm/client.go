// Package getsongbpm implements the structured lookup tier against the
// GetSongBPM API (https://getsongbpm.com/api): a search call that yields
// song IDs, then a detail call that carries the tempo.
package getsongbpm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/metromatch/metromatch/internal/domain"
)

const requestTimeout = 10 * time.Second

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func New(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type searchResponse struct {
	// The API returns either a list of match stubs or, for no results,
	// an object like {"error": "no result"}. Decoded lazily to cope.
	Search json.RawMessage `json:"search"`
}

type searchStub struct {
	ID string `json:"id"`
}

type songResponse struct {
	Song *songDetail `json:"song"`
}

type songDetail struct {
	Title  string          `json:"song_title"`
	URI    string          `json:"song_uri"`
	Tempo  json.RawMessage `json:"tempo"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}

// Search resolves (artist, title) to a BPM via the two-phase protocol.
// Every transport error, non-2xx status and payload anomaly is handled
// here and reported as a miss.
func (c *Client) Search(ctx context.Context, artist, title string) (*domain.ResolutionResult, bool) {
	lookup := fmt.Sprintf("song:%s artist:%s", strings.ToLower(title), strings.ToLower(artist))

	params := url.Values{}
	params.Add("api_key", c.apiKey)
	params.Add("type", "both")
	params.Add("lookup", lookup)

	var resp searchResponse
	if err := c.getJSON(ctx, "/search/", params, &resp); err != nil {
		slog.Warn("getsongbpm search failed", "artist", artist, "title", title, "error", err)
		return nil, false
	}

	var stubs []searchStub
	if err := json.Unmarshal(resp.Search, &stubs); err != nil {
		// An object here is the API's no-result marker; anything else is a
		// shape anomaly. Both are misses.
		var container map[string]json.RawMessage
		if json.Unmarshal(resp.Search, &container) == nil {
			if _, ok := container["error"]; ok {
				slog.Debug("getsongbpm returned no results", "artist", artist, "title", title)
				return nil, false
			}
		}
		slog.Warn("getsongbpm unexpected search payload", "artist", artist, "title", title)
		return nil, false
	}

	if len(stubs) == 0 || stubs[0].ID == "" {
		slog.Debug("getsongbpm returned no results", "artist", artist, "title", title)
		return nil, false
	}

	slog.Info("getsongbpm matched song", "artist", artist, "title", title, "songID", stubs[0].ID)
	return c.GetByID(ctx, stubs[0].ID)
}

// GetByID fetches song details and extracts the tempo field.
func (c *Client) GetByID(ctx context.Context, songID string) (*domain.ResolutionResult, bool) {
	params := url.Values{}
	params.Add("api_key", c.apiKey)
	params.Add("id", songID)

	var resp songResponse
	if err := c.getJSON(ctx, "/song/", params, &resp); err != nil {
		slog.Warn("getsongbpm song fetch failed", "songID", songID, "error", err)
		return nil, false
	}

	if resp.Song == nil {
		slog.Warn("getsongbpm song payload missing", "songID", songID)
		return nil, false
	}

	bpm, ok := parseTempo(resp.Song.Tempo)
	if !ok {
		slog.Warn("getsongbpm song has no usable tempo", "songID", songID)
		return nil, false
	}

	return &domain.ResolutionResult{
		BPM:    bpm,
		Source: domain.SourceAPI,
		Metadata: map[string]string{
			"song_id": songID,
			"artist":  resp.Song.Artist.Name,
			"title":   resp.Song.Title,
			"url":     resp.Song.URI,
		},
	}, true
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseTempo coerces the tempo field, which the API serves sometimes as a
// JSON string and sometimes as a number, into a float.
func parseTempo(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(asString), 64)
		if err != nil || v <= 0 {
			return 0, false
		}
		return v, true
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil && asNumber > 0 {
		return asNumber, true
	}

	return 0, false
}
