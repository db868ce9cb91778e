package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/metromatch/metromatch/internal/domain"
	"github.com/metromatch/metromatch/internal/normalize"
	"github.com/metromatch/metromatch/internal/resolver"
)

type bpmResponse struct {
	Artist     string            `json:"artist"`
	Title      string            `json:"title"`
	BPM        float64           `json:"bpm"`
	Source     domain.Source     `json:"source"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ArtworkURL string            `json:"artworkUrl,omitempty"`
}

type nowPlayingResponse struct {
	Artist     string   `json:"artist"`
	Title      string   `json:"title"`
	Album      string   `json:"album,omitempty"`
	Player     string   `json:"player,omitempty"`
	BPM        *float64 `json:"bpm,omitempty"`
	Source     string   `json:"source,omitempty"`
	ArtworkURL string   `json:"artworkUrl,omitempty"`
}

type putCacheRequest struct {
	BPM float64 `json:"bpm" binding:"required,gt=0"`
}

// getBPM resolves a track's tempo from query parameters.
func (s *Server) getBPM(c *gin.Context) {
	artist := c.Query("artist")
	title := c.Query("title")

	result, err := s.resolver.Resolve(c.Request.Context(), artist, title)
	if err != nil {
		if errors.Is(err, resolver.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "artist and title are required"})
			return
		}
		slog.Error("resolution failed", "artist", artist, "title", title, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bpm not found"})
		return
	}

	c.JSON(http.StatusOK, bpmResponse{
		Artist:     artist,
		Title:      title,
		BPM:        result.BPM,
		Source:     result.Source,
		Metadata:   result.Metadata,
		ArtworkURL: s.artwork.CoverURL(artist, title),
	})
}

// getNowPlaying detects the local player's current track and resolves
// its tempo. The BPM field is omitted when resolution misses.
func (s *Server) getNowPlaying(c *gin.Context) {
	if s.detector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "now playing detection is not available"})
		return
	}

	track, err := s.detector.CurrentTrack(c.Request.Context())
	if err != nil {
		slog.Error("now playing detection failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "detection failed"})
		return
	}
	if track == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing playing"})
		return
	}

	resp := nowPlayingResponse{
		Artist:     track.Artist,
		Title:      track.Title,
		Album:      track.Album,
		Player:     track.Player,
		ArtworkURL: s.artwork.CoverURL(track.Artist, track.Title),
	}

	result, err := s.resolver.Resolve(c.Request.Context(), track.Artist, track.Title)
	if err != nil {
		slog.Error("resolution failed for current track", "artist", track.Artist, "title", track.Title, "error", err)
	} else if result != nil {
		resp.BPM = &result.BPM
		resp.Source = string(result.Source)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) getCacheEntry(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache is not configured"})
		return
	}

	key := normalize.Key(c.Param("artist"), c.Param("title"))
	record, ok := s.cache.Get(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not cached"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// putCacheEntry stores a manual tempo override.
func (s *Server) putCacheEntry(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache is not configured"})
		return
	}

	var req putCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := normalize.Key(c.Param("artist"), c.Param("title"))
	s.cache.Put(key, req.BPM, domain.SourceManual, nil)

	c.JSON(http.StatusOK, gin.H{
		"artist": key.Artist,
		"title":  key.Title,
		"bpm":    req.BPM,
		"source": domain.SourceManual,
	})
}

func (s *Server) deleteCacheEntry(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache is not configured"})
		return
	}

	key := normalize.Key(c.Param("artist"), c.Param("title"))
	if err := s.cache.Delete(key); err != nil {
		slog.Error("failed to delete cache entry", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (s *Server) clearCache(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache is not configured"})
		return
	}

	count, _ := s.cache.Count()
	if err := s.cache.Clear(); err != nil {
		slog.Error("failed to clear cache", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cache cleared", "removed": count})
}
