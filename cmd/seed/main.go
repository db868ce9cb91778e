// Command seed warms the BPM cache from a CSV of artist,title[,bpm] rows.
// Rows carrying a bpm are stored directly; the rest are resolved through
// the full pipeline.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/metromatch/metromatch/config"
	"github.com/metromatch/metromatch/internal/domain"
	"github.com/metromatch/metromatch/internal/normalize"
	"github.com/metromatch/metromatch/internal/pipeline"
)

type seedRow struct {
	artist string
	title  string
	bpm    float64 // 0 means resolve through the pipeline
}

func main() {
	csvPath := flag.String("csv", "", "Path to a CSV file with artist,title[,bpm] rows (required)")
	configPath := flag.String("config", "./config/config.yaml", "Path to configuration file")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("Missing required flag: -csv")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Cache.Path == "" {
		log.Fatal("Seeding requires cache.path to be configured")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	rows, err := readRows(*csvPath)
	if err != nil {
		log.Fatal(err)
	}
	if len(rows) == 0 {
		log.Fatal("CSV contains no usable rows")
	}

	p := pipeline.Build(cfg)
	defer p.Close()
	if p.Cache == nil {
		log.Fatal("Seeding requires a working cache store")
	}

	bar := progressbar.NewOptions(
		len(rows),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Seeding BPM cache...[reset]"),
	)

	ctx := context.Background()
	seeded, missed := 0, 0
	for _, row := range rows {
		if row.bpm > 0 {
			p.Cache.Put(normalize.Key(row.artist, row.title), row.bpm, domain.SourceManual, nil)
			seeded++
		} else if result, err := p.Resolver.Resolve(ctx, row.artist, row.title); err == nil && result != nil {
			seeded++
		} else {
			missed++
		}
		_ = bar.Add(1)
	}

	fmt.Printf("\nSeeded %d of %d tracks (%d missed)\n", seeded, len(rows), missed)
}

// readRows parses artist,title[,bpm] records, skipping a header row and
// rows with missing fields. An unparseable bpm column falls back to
// pipeline resolution for that row.
func readRows(path string) ([]seedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	var rows []seedRow
	for i, record := range records {
		if len(record) < 2 {
			continue
		}
		artist := strings.TrimSpace(record[0])
		title := strings.TrimSpace(record[1])
		if artist == "" || title == "" {
			continue
		}
		if i == 0 && strings.EqualFold(artist, "artist") {
			continue
		}

		row := seedRow{artist: artist, title: title}
		if len(record) >= 3 {
			if bpm, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64); err == nil && bpm > 0 {
				row.bpm = bpm
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
