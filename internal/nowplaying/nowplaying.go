// Package nowplaying detects the track currently playing on the local
// machine via the playerctl MPRIS bridge.
package nowplaying

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Track is the currently playing track as reported by the media player.
type Track struct {
	Artist string
	Title  string
	Album  string
	Player string
}

// Detector reports the currently playing track, if any.
type Detector interface {
	// CurrentTrack returns the playing track, or nil when nothing is
	// playing or no supported player is running.
	CurrentTrack(ctx context.Context) (*Track, error)
}

const fieldSeparator = "|||"

// PlayerctlDetector implements Detector by shelling out to playerctl,
// which speaks MPRIS to whatever media player is active.
type PlayerctlDetector struct{}

func NewPlayerctlDetector() *PlayerctlDetector {
	return &PlayerctlDetector{}
}

// Available reports whether playerctl is installed.
func Available() bool {
	_, err := exec.LookPath("playerctl")
	return err == nil
}

// CurrentTrack queries playerctl for the active player's status and
// metadata in a single invocation per field group.
func (d *PlayerctlDetector) CurrentTrack(ctx context.Context) (*Track, error) {
	status, err := d.run(ctx, "status")
	if err != nil {
		// playerctl exits non-zero when no player is running
		return nil, nil
	}
	if status != "Playing" {
		return nil, nil
	}

	format := strings.Join([]string{"{{artist}}", "{{title}}", "{{album}}", "{{playerName}}"}, fieldSeparator)
	output, err := d.run(ctx, "metadata", "--format", format)
	if err != nil {
		return nil, fmt.Errorf("failed to read player metadata: %w", err)
	}

	track, err := parseMetadata(output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse player metadata: %w", err)
	}
	return track, nil
}

func (d *PlayerctlDetector) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "playerctl", args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("playerctl error: %s", string(exitErr.Stderr))
		}
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// parseMetadata splits the delimited playerctl output into a Track.
// Artist and title are required, album and player are optional.
func parseMetadata(output string) (*Track, error) {
	parts := strings.Split(output, fieldSeparator)
	if len(parts) != 4 {
		return nil, fmt.Errorf("expected 4 fields, got %d: %q", len(parts), output)
	}

	artist := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	if artist == "" || title == "" {
		return nil, fmt.Errorf("incomplete track metadata: %q", output)
	}

	return &Track{
		Artist: artist,
		Title:  title,
		Album:  strings.TrimSpace(parts[2]),
		Player: strings.TrimSpace(parts[3]),
	}, nil
}
