package sim

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/utils"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionInfo is the listing entry of a session.
type SessionInfo struct {
	ID        string        `json:"id"`
	State     gesture.State `json:"state"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Registry keeps the most recently used sessions. A session pushed out by a
// newer one is closed.
type Registry struct {
	settings  Settings
	delegates *gesture.Registry
	sessions  *lru.Cache[string, *Session]
}

func NewRegistry(settings Settings) (*Registry, error) {
	size := settings.MaxSessions
	if size <= 0 {
		size = 1
	}

	sessions, err := lru.NewWithEvict(size, func(id string, s *Session) {
		utils.Verbose("Evicting session %s", id)
		s.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	return &Registry{
		settings:  settings,
		delegates: gesture.NewRegistry(),
		sessions:  sessions,
	}, nil
}

func (r *Registry) Settings() Settings {
	return r.settings
}

// Delegates is the delegate registry shared by all sessions.
func (r *Registry) Delegates() *gesture.Registry {
	return r.delegates
}

func (r *Registry) Create(opts SessionOptions) (*Session, error) {
	s, err := NewSession(uuid.NewString(), r.settings, r.delegates, opts)
	if err != nil {
		return nil, err
	}

	r.sessions.Add(s.ID, s)
	utils.Verbose("Created session %s for region %+v", s.ID, opts.SourceRegion)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close closes and forgets a session.
func (r *Registry) Close(id string) error {
	if !r.sessions.Remove(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// List returns the sessions, oldest first.
func (r *Registry) List() []SessionInfo {
	infos := []SessionInfo{}
	for _, s := range r.sessions.Values() {
		info := SessionInfo{ID: s.ID, CreatedAt: s.CreatedAt}
		if st, err := s.State(); err == nil {
			info.State = st.Gesture.State
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	if r.sessions.Len() == 0 {
		return
	}
	utils.Verbose("Closing %d sessions", r.sessions.Len())
	r.sessions.Purge()
}
