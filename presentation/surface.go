package presentation

import (
	"math"

	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/touch"
	"github.com/mobile-next/peekpop/types"
	"github.com/mobile-next/peekpop/utils"
)

// Renderer receives every new frame.
type Renderer func(frame Frame)

// Surface is a gesture.PresentationPort that computes the preview layout.
// Like the controller driving it, it is used from one goroutine.
type Surface struct {
	opts   Options
	render Renderer

	source         types.Rect
	frame          Frame
	surfaceGesture bool
}

var _ gesture.PresentationPort = (*Surface)(nil)

func NewSurface(opts Options, render Renderer) *Surface {
	return &Surface{opts: opts, render: render}
}

func (s *Surface) Options() Options { return s.opts }
func (s *Surface) Frame() Frame     { return s.frame }

// SurfaceGestureInstalled reports whether the anchored preview takes its
// own touches.
func (s *Surface) SurfaceGestureInstalled() bool { return s.surfaceGesture }

func (s *Surface) bounds() types.Rect {
	return types.NewRect(types.Point{}, s.opts.Bounds)
}

// Present lays the preview out at zero progress and reports whether the
// action button was set up.
func (s *Surface) Present(preview gesture.Preview) bool {
	source := preview.SourceRect
	if source.Size().IsZero() {
		source = s.bounds()
	}
	s.source = source

	layer := LayerImage
	if s.opts.Mode == ModeEmbedded {
		layer = LayerController
	}

	s.frame = Frame{
		Presented: true,
		Layer:     layer,
		Title:     preview.Title,
		Button:    s.setupButton(preview),
	}
	s.layout(0)
	utils.Verbose("Presenting preview from %+v in %s mode", source, s.opts.Mode)
	s.emit()
	return s.frame.Button.Enabled
}

func (s *Surface) setupButton(preview gesture.Preview) ButtonState {
	enabled := s.opts.ShowActionButton
	if s.opts.Mode == ModeEmbedded {
		enabled = enabled && preview.ButtonAvailable
	}
	if !enabled {
		return ButtonState{}
	}

	b := s.opts.Bounds
	frame := types.Rect{Width: b.Width - s.opts.Padding.Width, Height: ButtonHeight}
	return ButtonState{
		Enabled: true,
		Frame:   frame.WithCenter(types.Point{X: b.Width / 2, Y: b.Height + ButtonHeight}),
	}
}

// Metrics reports the surface size and the size of the preview container.
// The container is empty until a preview is presented.
func (s *Surface) Metrics() touch.Metrics {
	m := touch.Metrics{Surface: s.opts.Bounds}
	if s.frame.Presented {
		m.Container = s.frame.Target.Size()
	}
	return m
}

func (s *Surface) MoveSurface(offset types.Point) {
	if !s.frame.Presented {
		return
	}
	s.frame.ContainerOffset = offset
	s.frame.Anchored = false
	s.emit()
}

func (s *Surface) ResizeOrTransform(progress float64) {
	if !s.frame.Presented {
		return
	}
	s.layout(progress)
	s.emit()
}

// AnchorToTop pins the container at offset and installs the surface
// gesture.
func (s *Surface) AnchorToTop(offset float64) {
	if !s.frame.Presented {
		return
	}
	s.frame.ContainerOffset = types.Point{X: 0, Y: offset}
	s.frame.Anchored = true
	s.surfaceGesture = true
	s.emit()
}

func (s *Surface) ShowActionButton(show bool) {
	button := &s.frame.Button
	if !s.frame.Presented || !button.Enabled {
		return
	}

	b := s.opts.Bounds
	y := b.Height + ButtonHeight
	if show {
		y = b.Height - ButtonHeight + buttonRaise
	}
	button.Visible = show
	button.Frame = button.Frame.WithCenter(types.Point{X: button.Frame.Center().X, Y: y})
	s.emit()
}

func (s *Surface) Teardown() {
	s.frame = Frame{}
	s.source = types.Rect{}
	s.surfaceGesture = false
	s.emit()
}

// layout derives the whole frame from progress, so a decaying preview
// retraces the same geometry it grew through.
func (s *Surface) layout(progress float64) {
	p := types.Clamp(progress, 0, 1)
	f := &s.frame
	f.Progress = p
	f.Stage = StageFor(p)
	f.SourceVisible = p <= SourceStageEnd
	f.TargetVisible = p >= SourceStageEnd

	adjusted := math.Min(p*3, 1)
	f.Blur = s.blur(adjusted)
	f.BackgroundScale = 1 - adjusted*sourceScaling
	f.SourceScale = 1 + adjusted*sourceScaling
	f.OverlayAlpha = adjusted

	reveal := types.Clamp((p-SourceStageEnd)/revealSpan, 0, 1)
	f.Target = s.revealed(reveal)
	f.TargetScale = 1
	f.CornerRadius = s.opts.CornerRadius

	switch f.Stage {
	case StageExpand:
		f.TargetScale = math.Min(1+(p-expandOrigin)/expandDivisor, expandMax)
	case StageCommit:
		f.Target = s.bounds()
		f.CornerRadius = 0
	}
}

// revealed interpolates the container from the source rect (k=0) to the
// padded, centred preview (k=1).
func (s *Surface) revealed(k float64) types.Rect {
	bounds := s.bounds()
	full := types.Size{
		Width:  s.opts.Bounds.Width - s.opts.Padding.Width,
		Height: s.opts.Bounds.Height - s.opts.Padding.Height,
	}

	size := types.Size{
		Width:  s.source.Width + (full.Width-s.source.Width)*k,
		Height: s.source.Height + (full.Height-s.source.Height)*k,
	}
	from, to := s.source.Center(), bounds.Center()
	center := types.Point{
		X: from.X + (to.X-from.X)*k,
		Y: from.Y + (to.Y-from.Y)*k,
	}
	return types.Rect{Width: size.Width, Height: size.Height}.WithCenter(center)
}

func (s *Surface) blur(adjusted float64) BlurState {
	levels := s.opts.BlurLevels
	if levels <= 0 {
		return BlurState{}
	}

	b := adjusted * float64(levels)
	level := int(b)
	if level >= levels {
		return BlurState{Level: levels, Next: levels, Radius: BlurRadius(levels, levels)}
	}
	return BlurState{
		Level:  level,
		Next:   level + 1,
		Alpha:  b - float64(level),
		Radius: b * maxBlurRadius / float64(levels),
	}
}

func (s *Surface) emit() {
	if s.render != nil {
		s.render(s.frame)
	}
}
