package gesture

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mobile-next/peekpop/types"
	"github.com/mobile-next/peekpop/utils"
)

// DelegateKey is a non-owning reference to a registered Delegate.
type DelegateKey string

// PreviewContext ties a source region to the delegate that previews it.
type PreviewContext struct {
	Delegate     DelegateKey `json:"delegate"`
	SourceRegion types.Rect  `json:"sourceRegion"`
	SourceRect   types.Rect  `json:"sourceRect"`
}

// Registry owns delegates on behalf of the application. Controllers only
// hold keys, so a released delegate simply stops providing previews.
type Registry struct {
	mu        sync.RWMutex
	delegates map[DelegateKey]*Delegate
}

// NewRegistry creates a new delegate registry instance
func NewRegistry() *Registry {
	return &Registry{
		delegates: make(map[DelegateKey]*Delegate),
	}
}

// Register stores d and returns a context for sourceRegion. A zero
// sourceRect defaults to the whole region.
func (r *Registry) Register(d *Delegate, sourceRegion, sourceRect types.Rect) PreviewContext {
	key := DelegateKey(uuid.NewString())

	r.mu.Lock()
	r.delegates[key] = d
	r.mu.Unlock()

	if sourceRect.Size().IsZero() {
		sourceRect = sourceRegion
	}
	utils.Verbose("Registered preview delegate %s for region %+v", key, sourceRegion)
	return PreviewContext{
		Delegate:     key,
		SourceRegion: sourceRegion,
		SourceRect:   sourceRect,
	}
}

func (r *Registry) Lookup(key DelegateKey) (*Delegate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.delegates[key]
	return d, ok
}

// Release forgets the delegate behind key.
func (r *Registry) Release(key DelegateKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.delegates, key)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.delegates)
}

// ReleaseAll forgets every delegate
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.delegates) == 0 {
		return
	}

	utils.Verbose("Releasing %d preview delegates", len(r.delegates))
	r.delegates = make(map[DelegateKey]*Delegate)
}
