package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/metromatch/metromatch/config"
	"github.com/metromatch/metromatch/internal/metronome"
	"github.com/metromatch/metromatch/internal/nowplaying"
	"github.com/metromatch/metromatch/internal/pipeline"
)

func main() {
	artist := flag.String("artist", "", "Artist name")
	title := flag.String("title", "", "Song title")
	configPath := flag.String("config", "./config/config.yaml", "Path to configuration file")
	useNowPlaying := flag.Bool("now-playing", false, "Detect the currently playing track instead of using -artist/-title")
	runMetronome := flag.Bool("metronome", false, "Start a metronome at the resolved tempo")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx := context.Background()

	if *useNowPlaying {
		if !nowplaying.Available() {
			slog.Error("playerctl not found, cannot detect the current track")
			os.Exit(1)
		}
		track, err := nowplaying.NewPlayerctlDetector().CurrentTrack(ctx)
		if err != nil {
			slog.Error("Failed to detect current track", "error", err)
			os.Exit(1)
		}
		if track == nil {
			fmt.Println("Nothing is playing.")
			os.Exit(0)
		}
		*artist, *title = track.Artist, track.Title
		fmt.Printf("Now playing: %s - %s\n", *artist, *title)
	}

	if *artist == "" || *title == "" {
		flag.Usage()
		os.Exit(2)
	}

	p := pipeline.Build(cfg)
	defer p.Close()

	result, err := p.Resolver.Resolve(ctx, *artist, *title)
	if err != nil {
		slog.Error("Resolution failed", "error", err)
		os.Exit(1)
	}
	if result == nil {
		fmt.Printf("No BPM found for %s - %s\n", *artist, *title)
		os.Exit(1)
	}

	fmt.Printf("%s - %s: %.1f BPM (%s)\n", *artist, *title, result.BPM, result.Source)

	if *runMetronome {
		player := metronome.NewPlayer()
		if err := player.SetBPM(result.BPM); err != nil {
			slog.Error("Invalid tempo for metronome", "bpm", result.BPM, "error", err)
			os.Exit(1)
		}
		player.OnBeat = func(count int) {
			fmt.Printf("\rbeat %d", count)
		}
		player.Start()
		defer player.Stop()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		fmt.Println()
	}
}
