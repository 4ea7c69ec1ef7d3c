package types

import (
	"fmt"
	"strings"
	"time"
)

// TouchPhase is the lifecycle phase of a single raw touch event.
type TouchPhase string

const (
	PhaseBegan     TouchPhase = "began"
	PhaseMoved     TouchPhase = "moved"
	PhaseEnded     TouchPhase = "ended"
	PhaseCancelled TouchPhase = "cancelled"
)

// ParseTouchPhase accepts a phase name case-insensitively.
func ParseTouchPhase(s string) (TouchPhase, error) {
	switch TouchPhase(strings.ToLower(strings.TrimSpace(s))) {
	case PhaseBegan:
		return PhaseBegan, nil
	case PhaseMoved:
		return PhaseMoved, nil
	case PhaseEnded:
		return PhaseEnded, nil
	case PhaseCancelled:
		return PhaseCancelled, nil
	}
	return "", fmt.Errorf("unknown touch phase '%s', expected one of: began, moved, ended, cancelled", s)
}

// TouchSample is a single raw touch event. It is produced per input event
// and not retained beyond the event that carries it.
type TouchSample struct {
	// Location is in the coordinate space of the surface enclosing the
	// source region.
	Location Point `json:"location"`
	// Window is the same touch in window-global coordinates.
	Window Point `json:"window"`
	// Radius is the contact radius, used as a pressure proxy.
	Radius    float64       `json:"radius"`
	Phase     TouchPhase    `json:"phase"`
	Timestamp time.Duration `json:"timestamp"`
}
