// Package touch validates raw touches against a source region and turns
// their movement into displacement and posture for the preview container.
package touch

import (
	"errors"

	"github.com/mobile-next/peekpop/types"
)

const (
	// EngageTopThreshold is how close to the top the container must come
	// to anchor while the original press is still down.
	EngageTopThreshold = 20.0

	// AnchoredTopThreshold applies to the drag on an already anchored
	// preview surface.
	AnchoredTopThreshold = 0.0

	// DefaultBottomMargin is the gap the container must keep above the
	// bottom of the preview surface.
	DefaultBottomMargin = 10.0

	// DefaultEscalationRatio: initial radius / current radius below this
	// counts as a harder press.
	DefaultEscalationRatio = 0.6
)

var (
	ErrInvalidTouch  = errors.New("touch outside source region")
	ErrSessionActive = errors.New("a touch is already being tracked")
)

type Config struct {
	BottomMargin    float64
	EscalationRatio float64
}

func DefaultConfig() Config {
	return Config{
		BottomMargin:    DefaultBottomMargin,
		EscalationRatio: DefaultEscalationRatio,
	}
}

// Session is the state of the single tracked touch.
type Session struct {
	SourceRegion types.Rect
	// Start is the initial location relative to the source region.
	Start       types.Point
	StartWindow types.Point
	// InitialRadius is the pressure baseline for escalation.
	InitialRadius float64
	// ContainerOffset is where the container sits in window space when the
	// touch is at Start.
	ContainerOffset types.Point
	Anchored        bool
	Last            types.TouchSample
}

// Displacement is the movement since the session started.
type Displacement struct {
	Location types.Point `json:"location"`
	Local    types.Point `json:"local"`
	Window   types.Point `json:"window"`
}

// Metrics describes the preview geometry the posture is measured against.
type Metrics struct {
	Surface   types.Size `json:"surface"`
	Container types.Size `json:"container"`
}

// Ready is false until the preview has a container to place, which is the
// case during the first frame.
func (m Metrics) Ready() bool {
	return !m.Surface.IsZero() && !m.Container.IsZero()
}

type Posture struct {
	InBounds    bool       `json:"inBounds"`
	TouchingTop bool       `json:"touchingTop"`
	Bounds      types.Rect `json:"bounds"`
}

// Tracker follows at most one touch at a time.
type Tracker struct {
	cfg     Config
	session *Session
}

func NewTracker(cfg Config) *Tracker {
	if cfg.EscalationRatio <= 0 {
		cfg.EscalationRatio = DefaultEscalationRatio
	}
	return &Tracker{cfg: cfg}
}

// Begin starts a session for a touch inside region. The touch location is in
// the coordinate space enclosing region.
func (t *Tracker) Begin(sample types.TouchSample, region types.Rect) (*Session, error) {
	if t.session != nil {
		return nil, ErrSessionActive
	}
	if !region.Contains(sample.Location) {
		return nil, ErrInvalidTouch
	}

	start := sample.Location.Sub(region.Origin())
	t.session = &Session{
		SourceRegion:    region,
		Start:           start,
		StartWindow:     sample.Window,
		InitialRadius:   sample.Radius,
		ContainerOffset: sample.Window.Sub(start),
		Last:            sample,
	}
	return t.session, nil
}

func (t *Tracker) Session() *Session {
	return t.session
}

func (t *Tracker) Active() bool {
	return t.session != nil
}

// Valid reports whether the latest sample is still inside the source region.
func (t *Tracker) Valid() bool {
	if t.session == nil {
		return false
	}
	return t.session.SourceRegion.Contains(t.session.Last.Location)
}

// Move records sample and returns its displacement from the session start.
func (t *Tracker) Move(sample types.TouchSample) (Displacement, bool) {
	s := t.session
	if s == nil {
		return Displacement{}, false
	}
	s.Last = sample

	local := sample.Location.Sub(s.SourceRegion.Origin())
	return Displacement{
		Location: local,
		Local:    local.Sub(s.Start),
		Window:   sample.Window.Sub(s.StartWindow),
	}, true
}

// Classify places the container at the displaced position and checks it
// against the preview surface. topThreshold differs between the primary
// press and the anchored surface drag.
func (t *Tracker) Classify(d Displacement, m Metrics, topThreshold float64) Posture {
	if t.session == nil || !m.Ready() {
		return Posture{}
	}

	bounds := types.NewRect(t.session.ContainerOffset.Add(d.Local), m.Container)
	return Posture{
		InBounds:    bounds.MaxY() <= m.Surface.Height-t.cfg.BottomMargin,
		TouchingTop: bounds.MinY() <= topThreshold,
		Bounds:      bounds,
	}
}

// Escalated reports whether radius is enough larger than the baseline to be
// treated as a harder press. A touch that began without a radius reading has
// no baseline and never escalates.
func (t *Tracker) Escalated(radius float64) bool {
	if t.session == nil || radius <= 0 || t.session.InitialRadius <= 0 {
		return false
	}
	return t.session.InitialRadius/radius < t.cfg.EscalationRatio
}

// Rebase makes the latest sample's radius the new pressure baseline.
func (t *Tracker) Rebase() {
	if t.session != nil {
		t.session.InitialRadius = t.session.Last.Radius
	}
}

func (t *Tracker) End() {
	t.session = nil
}
