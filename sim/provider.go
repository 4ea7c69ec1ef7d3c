package sim

import (
	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/types"
)

// Item is a previewable rectangle inside the source region.
type Item struct {
	ID string `json:"id"`
	// Rect is relative to the source region.
	Rect  types.Rect `json:"rect"`
	Title string     `json:"title,omitempty"`
	// Button overrides whether the action button is offered.
	Button *bool `json:"button,omitempty"`
}

// newDelegate previews the first item under the touch and reports every
// callback to s.
func newDelegate(s *Session, items []Item) *gesture.Delegate {
	find := func(location types.Point) *Item {
		for i := range items {
			if items[i].Rect.Contains(location) {
				return &items[i]
			}
		}
		return nil
	}

	return &gesture.Delegate{
		Build: func(location types.Point) gesture.PreviewHandle {
			item := find(location)
			if item == nil {
				return nil
			}
			return item
		},
		Title: func(handle gesture.PreviewHandle) (string, bool) {
			item := handle.(*Item)
			return item.Title, item.Title != ""
		},
		ButtonEnabled: func(handle gesture.PreviewHandle, current bool) bool {
			if b := handle.(*Item).Button; b != nil {
				return *b
			}
			return current && s.settings.Presentation.ShowActionButton
		},
		ButtonAction: func(handle gesture.PreviewHandle) func() {
			id := handle.(*Item).ID
			return func() { s.recordAction(id) }
		},
		Commit: gesture.CommitFunc(func(handle gesture.PreviewHandle) {
			s.recordCommit(handle.(*Item).ID)
		}),
		Visibility: gesture.VisibilityFunc(s.recordShown),
	}
}
