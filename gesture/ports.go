package gesture

import (
	"github.com/mobile-next/peekpop/touch"
	"github.com/mobile-next/peekpop/types"
)

// PreviewHandle is whatever the caller uses to identify previewed content.
// The controller never looks inside it.
type PreviewHandle interface{}

// CommitSink receives the committed preview, exactly once per successful
// gesture.
type CommitSink interface {
	Commit(handle PreviewHandle)
}

// CommitFunc adapts a function to CommitSink.
type CommitFunc func(handle PreviewHandle)

func (f CommitFunc) Commit(handle PreviewHandle) { f(handle) }

// VisibilitySink is told when the preview appears and disappears. It is
// best effort.
type VisibilitySink interface {
	OnShown(shown bool)
}

// VisibilityFunc adapts a function to VisibilitySink.
type VisibilityFunc func(shown bool)

func (f VisibilityFunc) OnShown(shown bool) { f(shown) }

// Delegate is the caller's set of capabilities. Build is the only one a
// gesture needs; every other member may be nil and is checked before use.
type Delegate struct {
	// Build returns the preview for a location relative to the source
	// region, or nil when there is nothing to preview there.
	Build func(location types.Point) PreviewHandle

	Title         func(handle PreviewHandle) (string, bool)
	ButtonEnabled func(handle PreviewHandle, current bool) bool
	ButtonAction  func(handle PreviewHandle) func()

	Commit     CommitSink
	Visibility VisibilitySink
}

// Preview is handed to the presentation when a long press is confirmed.
type Preview struct {
	Handle   PreviewHandle `json:"-"`
	Location types.Point   `json:"location"`
	// SourceRect is the area that grows into the preview, in the
	// presentation surface's coordinates.
	SourceRect      types.Rect `json:"sourceRect"`
	Title           string     `json:"title,omitempty"`
	ButtonAvailable bool       `json:"buttonAvailable"`
}

// PresentationPort is driven by the controller to show the preview. It is
// never called for a gesture that failed to begin.
type PresentationPort interface {
	// Present reports whether it set up an action button for the preview.
	Present(preview Preview) bool
	// Metrics is read on every move; an empty container means the preview
	// is not laid out yet.
	Metrics() touch.Metrics
	MoveSurface(offset types.Point)
	ResizeOrTransform(progress float64)
	AnchorToTop(offset float64)
	ShowActionButton(show bool)
	Teardown()
}
