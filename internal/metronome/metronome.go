// Package metronome provides a steady click generator whose tempo can
// be retargeted while running.
package metronome

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultBPM = 120.0

// ErrInvalidBPM is returned when a non-positive tempo is requested.
var ErrInvalidBPM = errors.New("bpm must be positive")

// Player emits beats at a configurable tempo. The zero tempo is 120 BPM.
// OnBeat, when set, is invoked from the player goroutine on every beat.
type Player struct {
	mu      sync.Mutex
	bpm     float64
	running bool
	stop    chan struct{}
	done    chan struct{}

	OnBeat func(count int)
}

func NewPlayer() *Player {
	return &Player{bpm: defaultBPM}
}

// SetBPM retargets the tempo. Takes effect on the next beat when the
// player is running.
func (p *Player) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidBPM, bpm)
	}

	p.mu.Lock()
	old := p.bpm
	p.bpm = bpm
	p.mu.Unlock()

	if old != bpm {
		slog.Info("metronome tempo changed", "from", old, "to", bpm)
	}
	return nil
}

// BPM returns the current tempo.
func (p *Player) BPM() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bpm
}

// IsRunning reports whether the beat loop is active.
func (p *Player) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start launches the beat loop. Starting an already running player is
// a no-op.
func (p *Player) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		slog.Warn("metronome already running")
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	bpm := p.bpm
	p.mu.Unlock()

	slog.Info("metronome started", "bpm", bpm)
	go p.loop()
}

// Stop halts the beat loop and waits for it to exit. Stopping a
// stopped player is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
	slog.Info("metronome stopped")
}

func (p *Player) loop() {
	defer close(p.done)

	count := 0
	timer := time.NewTimer(p.interval())
	defer timer.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-timer.C:
			count++
			p.beat(count)
			// Re-read the interval each beat so SetBPM takes effect
			// without restarting.
			timer.Reset(p.interval())
		}
	}
}

func (p *Player) beat(count int) {
	p.mu.Lock()
	onBeat := p.OnBeat
	p.mu.Unlock()

	if onBeat != nil {
		onBeat(count)
	}
}

func (p *Player) interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(float64(time.Minute) / p.bpm)
}
