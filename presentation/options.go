// Package presentation lays out the preview for a given progress value. It
// implements the gesture presentation port as plain data: every change
// produces a Frame that a renderer or a remote client can draw.
package presentation

import (
	"fmt"
	"strings"

	"github.com/mobile-next/peekpop/types"
)

// RenderMode selects which layer the preview geometry is applied to.
type RenderMode int

const (
	// ModePlain moves the preview image container.
	ModePlain RenderMode = iota
	// ModeEmbedded moves the embedded controller's container, and only
	// offers the action button when the preview allows it.
	ModeEmbedded
)

func (m RenderMode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeEmbedded:
		return "embedded"
	}
	return fmt.Sprintf("RenderMode(%d)", int(m))
}

// ParseRenderMode accepts "plain" or "embedded", case-insensitively.
func ParseRenderMode(s string) (RenderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain":
		return ModePlain, nil
	case "embedded":
		return ModeEmbedded, nil
	}
	return ModePlain, fmt.Errorf("invalid render mode '%s', must be one of: plain, embedded", s)
}

const (
	// stage boundaries on the progress scale
	SourceStageEnd = 0.33
	RevealStageEnd = 0.45
	ExpandStageEnd = 0.96

	revealSpan    = 0.1
	sourceScaling = 0.015
	expandOrigin  = 0.66
	expandDivisor = 6.0
	expandMax     = 1.1

	DefaultBlurLevels   = 3
	DefaultCornerRadius = 15.0
	ButtonHeight        = 50.0
	buttonRaise         = 10.0

	// maximum blur radius, reached by the last level
	maxBlurRadius = 8.0
)

// DefaultPadding is the space kept around the fully revealed preview.
var DefaultPadding = types.Size{Width: 28, Height: 140}

type Options struct {
	Mode   RenderMode
	Bounds types.Size
	// ShowActionButton enables the action button below the preview.
	ShowActionButton bool
	// BlurLevels is the number of blurred copies of the background on top
	// of the sharp one.
	BlurLevels   int
	Padding      types.Size
	CornerRadius float64
}

func DefaultOptions(bounds types.Size) Options {
	return Options{
		Mode:         ModePlain,
		Bounds:       bounds,
		BlurLevels:   DefaultBlurLevels,
		Padding:      DefaultPadding,
		CornerRadius: DefaultCornerRadius,
	}
}

func (o Options) Validate() error {
	if o.Bounds.Width <= 0 || o.Bounds.Height <= 0 {
		return fmt.Errorf("surface bounds must be positive, got %vx%v", o.Bounds.Width, o.Bounds.Height)
	}
	if o.BlurLevels < 0 {
		return fmt.Errorf("blur levels must not be negative, got %d", o.BlurLevels)
	}
	if o.Padding.Width >= o.Bounds.Width || o.Padding.Height >= o.Bounds.Height {
		return fmt.Errorf("padding %vx%v leaves no room on a %vx%v surface", o.Padding.Width, o.Padding.Height, o.Bounds.Width, o.Bounds.Height)
	}
	return nil
}

// BlurRadius is the blur radius of level i out of levels.
func BlurRadius(i, levels int) float64 {
	if levels <= 0 {
		return 0
	}
	return float64(i) * maxBlurRadius / float64(levels)
}
