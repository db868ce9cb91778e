package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/metromatch/metromatch/config"
	"github.com/metromatch/metromatch/internal/nowplaying"
	"github.com/metromatch/metromatch/internal/pipeline"
	"github.com/metromatch/metromatch/internal/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides configuration)")
	configPath := flag.String("config", "./config/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	p := pipeline.Build(cfg)
	defer p.Close()

	var cacheStore server.CacheStore
	if p.Cache != nil {
		cacheStore = p.Cache
	}

	var detector nowplaying.Detector
	if nowplaying.Available() {
		detector = nowplaying.NewPlayerctlDetector()
	}

	srv := server.New(cfg, p.Resolver, cacheStore, detector)

	listenPort := cfg.Server.Port
	if *port != "" {
		listenPort = *port
	}

	slog.Info("Starting BPM resolution API server", "port", listenPort)
	if err := srv.Start(listenPort); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
