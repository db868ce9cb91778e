package domain

import "time"

// Source identifies which tier of the resolution waterfall produced a BPM.
type Source string

const (
	SourceCache   Source = "cache"
	SourceAPI     Source = "api"
	SourceScraper Source = "scraper"
	SourceManual  Source = "manual"
)

// TrackQuery is the raw (artist, title) pair handed to the pipeline.
type TrackQuery struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// NormalizedKey is the cache identity of a track: lower-cased and
// whitespace-trimmed artist and title.
type NormalizedKey struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// BPMRecord is a cached resolution, unique per NormalizedKey.
type BPMRecord struct {
	Artist      string            `json:"artist"`
	Title       string            `json:"title"`
	BPM         float64           `json:"bpm"`
	Source      Source            `json:"source"`
	LastUpdated time.Time         `json:"last_updated"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ResolutionResult is what a tier hands back to the orchestrator.
type ResolutionResult struct {
	BPM      float64           `json:"bpm"`
	Source   Source            `json:"source"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
