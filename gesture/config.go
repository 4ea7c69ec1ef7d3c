package gesture

import (
	"fmt"
	"time"

	"github.com/mobile-next/peekpop/progress"
	"github.com/mobile-next/peekpop/touch"
)

const (
	// DefaultDebounce is how long a press must be held before the preview
	// is built.
	DefaultDebounce = 200 * time.Millisecond

	// DefaultAnchorOffset is the vertical container offset once the preview
	// locks to the top.
	DefaultAnchorOffset = -14.0
)

type Config struct {
	Animation progress.Config
	Tracking  touch.Config

	Debounce         time.Duration
	PreviewThreshold float64

	// The two top thresholds are intentionally separate: the first applies
	// while the original press is down, the second to the drag on an
	// anchored preview.
	EngageTopThreshold   float64
	AnchoredTopThreshold float64
	AnchorOffset         float64

	// StrictInvariants turns internal state violations into panics.
	StrictInvariants bool
}

func DefaultConfig() Config {
	return Config{
		Animation:            progress.DefaultConfig(),
		Tracking:             touch.DefaultConfig(),
		Debounce:             DefaultDebounce,
		PreviewThreshold:     progress.PreviewThreshold,
		EngageTopThreshold:   touch.EngageTopThreshold,
		AnchoredTopThreshold: touch.AnchoredTopThreshold,
		AnchorOffset:         DefaultAnchorOffset,
	}
}

// Validate checks the thresholds are ordered and the rates usable.
func (c Config) Validate() error {
	if c.Animation.RisingStep <= 0 || c.Animation.RisingStep > 0.5 {
		return fmt.Errorf("rising step must be in (0, 0.5], got %v", c.Animation.RisingStep)
	}
	if c.PreviewThreshold <= 0 || c.PreviewThreshold >= c.Animation.CommitThreshold {
		return fmt.Errorf("preview threshold %v must be above 0 and below commit threshold %v", c.PreviewThreshold, c.Animation.CommitThreshold)
	}
	if c.Animation.CommitThreshold > 1 {
		return fmt.Errorf("commit threshold must not exceed 1, got %v", c.Animation.CommitThreshold)
	}
	if c.Tracking.EscalationRatio <= 0 || c.Tracking.EscalationRatio >= 1 {
		return fmt.Errorf("escalation ratio must be in (0, 1), got %v", c.Tracking.EscalationRatio)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %v", c.Debounce)
	}
	return nil
}
