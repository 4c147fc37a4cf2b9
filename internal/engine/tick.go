// Package engine provides the tick-based simulation loop.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine drives the simulation forward at a fixed interval.
type Engine struct {
	Interval time.Duration // Base tick interval (default 1 second)

	// OnTick runs once per tick. A non-nil error halts the engine.
	OnTick func(tick uint64) error

	mu      sync.RWMutex
	tick    uint64  // Current tick counter (monotonic, never resets)
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running bool
	stop    chan struct{}
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval: time.Second,
		speed:    1.0,
	}
}

// Tick returns the last completed tick.
func (e *Engine) Tick() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tick
}

// SetTick sets the counter, used when resuming a saved run.
func (e *Engine) SetTick(t uint64) {
	e.mu.Lock()
	e.tick = t
	e.mu.Unlock()
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. 0 pauses the engine.
func (e *Engine) SetSpeed(s float64) error {
	if s < 0 {
		return fmt.Errorf("speed %v must be >= 0", s)
	}
	e.mu.Lock()
	e.speed = s
	e.mu.Unlock()
	return nil
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Run starts the simulation loop. It blocks until ctx is done, Stop is
// called, or a tick fails. Stop requests are honored between ticks only.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine already running")
	}
	e.running = true
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed(), "interval", e.Interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick(), "reason", ctx.Err())
			return nil
		case <-stop:
			slog.Info("simulation engine stopped", "tick", e.Tick())
			return nil
		default:
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused.
			sleep(ctx, stop, 100*time.Millisecond)
			continue
		}

		start := time.Now()

		if err := e.step(); err != nil {
			slog.Error("tick failed, halting engine", "tick", e.Tick()+1, "error", err)
			return err
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			sleep(ctx, stop, target-elapsed)
		}
	}
}

// Stop halts the loop after the current tick completes.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && e.stop != nil {
		select {
		case <-e.stop:
		default:
			close(e.stop)
		}
	}
}

// step advances the simulation by one tick.
func (e *Engine) step() error {
	next := e.Tick() + 1
	if e.OnTick != nil {
		if err := e.OnTick(next); err != nil {
			return fmt.Errorf("tick %d: %w", next, err)
		}
	}
	e.SetTick(next)
	return nil
}

// sleep waits for d, returning false if interrupted.
func sleep(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	}
}
