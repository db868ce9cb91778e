package metronome

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlayerDefaults(t *testing.T) {
	p := NewPlayer()
	assert.Equal(t, 120.0, p.BPM())
	assert.False(t, p.IsRunning())
}

func TestSetBPM(t *testing.T) {
	p := NewPlayer()

	require.NoError(t, p.SetBPM(116))
	assert.Equal(t, 116.0, p.BPM())

	assert.ErrorIs(t, p.SetBPM(0), ErrInvalidBPM)
	assert.ErrorIs(t, p.SetBPM(-40), ErrInvalidBPM)
	assert.Equal(t, 116.0, p.BPM(), "invalid tempo must not be applied")
}

func TestStartStop(t *testing.T) {
	p := NewPlayer()
	require.NoError(t, p.SetBPM(6000)) // 10ms interval keeps the test quick

	var beats atomic.Int64
	p.OnBeat = func(int) { beats.Add(1) }

	p.Start()
	assert.True(t, p.IsRunning())

	assert.Eventually(t, func() bool {
		return beats.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	p.Stop()
	assert.False(t, p.IsRunning())

	after := beats.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, beats.Load(), "no beats after Stop")
}

func TestStartTwiceIsNoOp(t *testing.T) {
	p := NewPlayer()
	p.Start()
	p.Start()
	assert.True(t, p.IsRunning())
	p.Stop()
}

func TestStopWhenNotRunningIsNoOp(t *testing.T) {
	p := NewPlayer()
	assert.NotPanics(t, func() { p.Stop() })
}

func TestIntervalFollowsTempo(t *testing.T) {
	p := NewPlayer()
	require.NoError(t, p.SetBPM(120))
	assert.Equal(t, 500*time.Millisecond, p.interval())

	require.NoError(t, p.SetBPM(60))
	assert.Equal(t, time.Second, p.interval())
}
