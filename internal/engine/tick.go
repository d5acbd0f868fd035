// Package engine provides the host's periodic tick loop.
package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Engine drives the host forward one frame at a time.
type Engine struct {
	Tick        uint64        // frames stepped so far
	Speed       float64       // multiplier: 1.0 = real-time, 0 = paused
	Interval    time.Duration // base frame interval
	ReportEvery uint64        // frames between OnReport calls, 0 = never

	// OnTick runs every frame. A non-nil error stops the loop.
	OnTick   func(tick uint64) error
	OnReport func(tick uint64)

	running atomic.Bool
	stopped atomic.Bool
	err     error
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: 16 * time.Millisecond,
	}
}

// Run steps until Stop is called or OnTick fails. It returns the failure.
// A Stop that arrives before Run still wins.
func (e *Engine) Run() error {
	if e.stopped.Load() {
		return e.err
	}
	e.running.Store(true)
	slog.Info("engine started", "tick", e.Tick, "speed", e.Speed, "interval", e.Interval)

	for !e.stopped.Load() {
		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		if !e.step() {
			break
		}

		// Sleep for the remainder of the interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
	e.running.Store(false)

	slog.Info("engine stopped", "tick", humanize.Comma(int64(e.Tick)))
	return e.err
}

// RunTicks steps n frames without pacing, for headless runs and tests.
func (e *Engine) RunTicks(n int) error {
	e.running.Store(true)
	defer e.running.Store(false)
	for i := 0; i < n && !e.stopped.Load(); i++ {
		if !e.step() {
			break
		}
	}
	return e.err
}

// Stop halts the loop after the current frame and keeps the engine from
// starting again. Safe from any goroutine.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// Running reports whether a loop is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// step advances one frame and reports whether the loop may continue.
func (e *Engine) step() bool {
	e.Tick++

	if e.OnTick != nil {
		if err := e.OnTick(e.Tick); err != nil {
			e.err = fmt.Errorf("tick %d: %w", e.Tick, err)
			return false
		}
	}

	if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
	return true
}
