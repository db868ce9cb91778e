// Package cache persists resolved BPM records in sqlite, keyed by the
// normalized (artist, title) pair.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/metromatch/metromatch/internal/domain"
)

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (creating if needed) the sqlite database at dbPath. A failure
// here means the cache tier is unavailable; the orchestrator runs without it.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS bpm_cache (
			artist       TEXT NOT NULL,
			title        TEXT NOT NULL,
			bpm          REAL NOT NULL,
			source       TEXT NOT NULL,
			metadata     TEXT,
			last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (artist, title)
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Secondary index for administrative sweeps; the pipeline itself never
	// expires entries.
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_bpm_cache_last_updated ON bpm_cache (last_updated)`); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("BPM cache initialized", "path", dbPath)
	return &Store{db: db}, nil
}

// Get looks up a record by normalized key. Connectivity or shape problems
// are logged and reported as a miss, never raised.
func (s *Store) Get(key domain.NormalizedKey) (*domain.BPMRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec      domain.BPMRecord
		source   string
		metadata sql.NullString
	)

	err := s.db.QueryRow(
		`SELECT bpm, source, metadata, last_updated FROM bpm_cache WHERE artist = ? AND title = ?`,
		key.Artist, key.Title,
	).Scan(&rec.BPM, &source, &metadata, &rec.LastUpdated)

	if err == sql.ErrNoRows {
		slog.Debug("cache miss", "artist", key.Artist, "title", key.Title)
		return nil, false
	}
	if err != nil {
		slog.Error("cache read failed", "artist", key.Artist, "title", key.Title, "error", err)
		return nil, false
	}

	rec.Artist = key.Artist
	rec.Title = key.Title
	rec.Source = domain.Source(source)

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
			slog.Warn("cache metadata unreadable, dropping", "artist", key.Artist, "title", key.Title, "error", err)
		}
	}

	slog.Debug("cache hit", "artist", key.Artist, "title", key.Title, "bpm", rec.BPM)
	return &rec, true
}

// Put upserts a record for the key; last write wins and no history is kept.
// Write errors are logged, not returned, so a flaky cache never fails a
// resolution that already succeeded.
func (s *Store) Put(key domain.NormalizedKey, bpm float64, source domain.Source, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metaJSON []byte
	if len(metadata) > 0 {
		var err error
		if metaJSON, err = json.Marshal(metadata); err != nil {
			slog.Warn("cache metadata not serializable, dropping", "error", err)
			metaJSON = nil
		}
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO bpm_cache (artist, title, bpm, source, metadata, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key.Artist, key.Title, bpm, string(source), nullableString(metaJSON), time.Now().UTC(),
	)
	if err != nil {
		slog.Error("cache write failed", "artist", key.Artist, "title", key.Title, "error", err)
		return
	}

	slog.Info("cached BPM", "artist", key.Artist, "title", key.Title, "bpm", bpm, "source", source)
}

// Delete removes a single entry. Administrative; the pipeline never deletes.
func (s *Store) Delete(key domain.NormalizedKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM bpm_cache WHERE artist = ? AND title = ?`, key.Artist, key.Title)
	return err
}

// Clear removes all entries. Administrative; the pipeline never deletes.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM bpm_cache`)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil {
		slog.Info("cleared cache", "entries", n)
	}
	return nil
}

// Count reports how many records are cached.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bpm_cache`).Scan(&n)
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
