package presentation

import "github.com/mobile-next/peekpop/types"

// Stage names the part of the animation a progress value falls in.
type Stage string

const (
	StageHidden Stage = "hidden"
	StageSource Stage = "source"
	StageReveal Stage = "reveal"
	StageExpand Stage = "expand"
	StageCommit Stage = "commit"
)

// StageFor maps progress to its animation stage.
func StageFor(progress float64) Stage {
	switch {
	case progress < SourceStageEnd:
		return StageSource
	case progress < RevealStageEnd:
		return StageReveal
	case progress < ExpandStageEnd:
		return StageExpand
	}
	return StageCommit
}

// Layer is the element the container geometry applies to.
type Layer string

const (
	LayerImage      Layer = "image"
	LayerController Layer = "controller"
)

// BlurState interpolates between two neighbouring blur levels: Next is
// drawn over Level with Alpha.
type BlurState struct {
	Level  int     `json:"level"`
	Next   int     `json:"next"`
	Alpha  float64 `json:"alpha"`
	Radius float64 `json:"radius"`
}

type ButtonState struct {
	Enabled bool       `json:"enabled"`
	Visible bool       `json:"visible"`
	Frame   types.Rect `json:"frame"`
}

// Frame is the full layout of the preview for one progress value.
type Frame struct {
	Presented bool    `json:"presented"`
	Progress  float64 `json:"progress"`
	Stage     Stage   `json:"stage"`
	Layer     Layer   `json:"layer"`
	Title     string  `json:"title,omitempty"`

	SourceVisible   bool      `json:"sourceVisible"`
	SourceScale     float64   `json:"sourceScale"`
	BackgroundScale float64   `json:"backgroundScale"`
	OverlayAlpha    float64   `json:"overlayAlpha"`
	Blur            BlurState `json:"blur"`

	TargetVisible   bool        `json:"targetVisible"`
	Target          types.Rect  `json:"target"`
	TargetScale     float64     `json:"targetScale"`
	CornerRadius    float64     `json:"cornerRadius"`
	ContainerOffset types.Point `json:"containerOffset"`
	Anchored        bool        `json:"anchored"`

	Button ButtonState `json:"button"`
}
