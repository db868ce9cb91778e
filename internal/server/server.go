// Package server exposes the resolution pipeline over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/metromatch/metromatch/config"
	"github.com/metromatch/metromatch/internal/artwork"
	"github.com/metromatch/metromatch/internal/domain"
	"github.com/metromatch/metromatch/internal/nowplaying"
)

// BPMResolver resolves a track's tempo through the waterfall.
type BPMResolver interface {
	Resolve(ctx context.Context, artist, title string) (*domain.ResolutionResult, error)
}

// ArtworkLookup resolves optional cover art URLs for responses.
type ArtworkLookup interface {
	CoverURL(artist, title string) string
}

// CacheStore is the subset of the persistent cache the API manages.
type CacheStore interface {
	Get(key domain.NormalizedKey) (*domain.BPMRecord, bool)
	Put(key domain.NormalizedKey, bpm float64, source domain.Source, metadata map[string]string)
	Delete(key domain.NormalizedKey) error
	Clear() error
	Count() (int, error)
}

// Server handles HTTP requests for BPM resolution.
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	resolver BPMResolver
	cache    CacheStore
	detector nowplaying.Detector
	artwork  ArtworkLookup
}

// New creates a new HTTP server instance. cache and detector may be
// nil, in which case the corresponding endpoints report the feature
// as unavailable.
func New(cfg *config.Config, resolver BPMResolver, cache CacheStore, detector nowplaying.Detector) *Server {
	router := gin.Default()

	server := &Server{
		cfg:      cfg,
		router:   router,
		resolver: resolver,
		cache:    cache,
		detector: detector,
		artwork:  artwork.NewLookup(),
	}

	server.setupRoutes(router)
	return server
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", s.healthCheck)

	api := router.Group("/api")
	{
		api.GET("/bpm", s.getBPM)
		api.GET("/now-playing", s.getNowPlaying)
		api.GET("/cache/:artist/:title", s.getCacheEntry)
		api.PUT("/cache/:artist/:title", s.putCacheEntry)
		api.DELETE("/cache/:artist/:title", s.deleteCacheEntry)
		api.DELETE("/cache", s.clearCache)
	}
}

// Start starts the HTTP server
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "metromatch",
	})
}
