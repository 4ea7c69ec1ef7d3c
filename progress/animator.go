// Package progress drives the scalar peek progress value toward its target,
// one step per display refresh.
package progress

import (
	"math"

	"github.com/mobile-next/peekpop/types"
)

const (
	// DefaultRisingStep is how far progress moves up on each tick.
	DefaultRisingStep = 0.02

	// PreviewThreshold is the target once a long press is confirmed and the
	// preview becomes visible.
	PreviewThreshold = 0.66

	// CommitThreshold is the progress at which the preview is popped.
	CommitThreshold = 0.99
)

// Config holds the animator tunables.
type Config struct {
	RisingStep      float64
	CommitThreshold float64
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		RisingStep:      DefaultRisingStep,
		CommitThreshold: CommitThreshold,
	}
}

// Listener receives animator events. All calls happen on the tick source's
// goroutine.
type Listener interface {
	// ProgressChanged is called after every tick that moved progress.
	ProgressChanged(progress float64)
	// Ended is called once when progress decays to zero.
	Ended()
	// Committed is called once when progress rises to the commit threshold.
	Committed()
}

// Animator owns the current progress. Callers may only move the target;
// progress follows at a fixed rate, falling twice as fast as it rises.
type Animator struct {
	cfg      Config
	ticks    TickSource
	listener Listener

	current   float64
	target    float64
	ticking   bool
	committed bool
}

func NewAnimator(cfg Config, ticks TickSource, listener Listener) *Animator {
	if cfg.RisingStep <= 0 {
		cfg.RisingStep = DefaultRisingStep
	}
	if cfg.CommitThreshold <= 0 || cfg.CommitThreshold > 1 {
		cfg.CommitThreshold = CommitThreshold
	}
	return &Animator{
		cfg:      cfg,
		ticks:    ticks,
		listener: listener,
	}
}

func (a *Animator) Progress() float64    { return a.current }
func (a *Animator) Target() float64      { return a.target }
func (a *Animator) Ticking() bool        { return a.ticking }
func (a *Animator) Committed() bool      { return a.committed }
func (a *Animator) RisingStep() float64  { return a.cfg.RisingStep }
func (a *Animator) FallingStep() float64 { return a.cfg.RisingStep * 2 }

// SetTarget moves the target, clamped to [0,1], and re-arms the tick
// subscription. Re-arming replaces any subscription already in place.
func (a *Animator) SetTarget(target float64) {
	a.target = types.Clamp(target, 0, 1)
	if a.current == a.target {
		a.stop()
		return
	}
	a.ticking = true
	a.ticks.Start(a.tick)
}

// Reset drops the tick subscription and zeroes all state, including the
// commit latch.
func (a *Animator) Reset() {
	a.stop()
	a.current = 0
	a.target = 0
	a.committed = false
}

func (a *Animator) stop() {
	if a.ticking {
		a.ticks.Stop()
		a.ticking = false
	}
}

func (a *Animator) tick() {
	if !a.ticking {
		return
	}

	var ended, committed bool
	switch {
	case a.current < a.target:
		if a.committed {
			// nothing may rise past a commit until Reset
			a.stop()
			return
		}
		a.current = math.Min(a.current+a.cfg.RisingStep, a.target)
		if a.current >= a.target {
			a.stop()
		}
		if a.current >= a.cfg.CommitThreshold {
			a.committed = true
			committed = true
			a.stop()
		}
	case a.current > a.target:
		a.current = math.Max(a.current-a.FallingStep(), a.target)
		if a.current <= a.target {
			a.stop()
			ended = a.current == 0
		}
	default:
		a.stop()
		return
	}

	if a.listener == nil {
		return
	}
	a.listener.ProgressChanged(a.current)
	if committed {
		a.listener.Committed()
	}
	if ended {
		a.listener.Ended()
	}
}
