// Package sim hosts simulated preview sessions: a gesture controller wired
// to a computed presentation and a scripted preview provider, driven either
// step by step or in real time.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mobile-next/peekpop/config"
	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/presentation"
	"github.com/mobile-next/peekpop/progress"
	"github.com/mobile-next/peekpop/runloop"
	"github.com/mobile-next/peekpop/types"
	"github.com/mobile-next/peekpop/utils"
)

const (
	maxEvents     = 1000
	subscriberBuf = 64
)

var (
	ErrSessionClosed = errors.New("session is closed")
	ErrRealtime      = errors.New("session is driven in real time")
)

// Settings are shared by every session of a registry.
type Settings struct {
	Gesture      gesture.Config
	Presentation presentation.Options
	MaxSessions  int
	// RefreshInterval is the simulated frame duration used by Wait.
	RefreshInterval time.Duration
}

// SettingsFromConfig derives session settings from the loaded configuration.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	opts, err := cfg.PresentationOptions()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Gesture:         cfg.Gesture(),
		Presentation:    opts,
		MaxSessions:     cfg.Server.MaxSessions,
		RefreshInterval: cfg.Animation.RefreshInterval,
	}, nil
}

// SessionOptions describe the source region of a new session.
type SessionOptions struct {
	SourceRegion types.Rect `json:"sourceRegion"`
	SourceRect   types.Rect `json:"sourceRect"`
	Items        []Item     `json:"items,omitempty"`
}

func (o *SessionOptions) normalize() error {
	if o.SourceRegion.Size().IsZero() {
		return fmt.Errorf("source region must not be empty")
	}
	if len(o.Items) == 0 {
		o.Items = []Item{{
			ID:   "item",
			Rect: types.Rect{Width: o.SourceRegion.Width, Height: o.SourceRegion.Height},
		}}
	}
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = fmt.Sprintf("item-%d", i)
		}
	}
	return nil
}

// State is everything a client can observe about a session.
type State struct {
	ID        string             `json:"id"`
	Realtime  bool               `json:"realtime"`
	Gesture   gesture.Snapshot   `json:"gesture"`
	Frame     presentation.Frame `json:"frame"`
	Shown     bool               `json:"shown"`
	Commits   []string           `json:"commits"`
	Actions   []string           `json:"actions"`
	ClockMs   int64              `json:"clockMs"`
	Ticks     int                `json:"ticks"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Session is one simulated preview context. Its methods are safe for
// concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	settings   Settings
	delegates  *gesture.Registry
	key        gesture.DelegateKey
	controller *gesture.Controller
	surface    *presentation.Surface

	// exactly one of these drives time
	ticker    *progress.ManualTicker
	scheduler *gesture.ManualScheduler
	loop      *runloop.Loop

	mu     sync.Mutex
	closed bool

	evMu        sync.Mutex
	events      []Event
	seq         int
	subscribers map[int]chan Event
	nextSub     int
	shown       bool
	commits     []string
	actions     []string
}

// NewSession creates a session driven by manual ticks and clock advances.
func NewSession(id string, settings Settings, delegates *gesture.Registry, opts SessionOptions) (*Session, error) {
	ticker := &progress.ManualTicker{}
	scheduler := &gesture.ManualScheduler{}
	s, err := newSession(id, settings, delegates, opts, ticker, scheduler)
	if err != nil {
		return nil, err
	}
	s.ticker = ticker
	s.scheduler = scheduler
	return s, nil
}

// NewRealtimeSession creates a session whose ticks and timers come from loop.
// Every call is executed on the loop, which must be running.
func NewRealtimeSession(id string, settings Settings, delegates *gesture.Registry, opts SessionOptions, loop *runloop.Loop) (*Session, error) {
	s, err := newSession(id, settings, delegates, opts, loop, loop)
	if err != nil {
		return nil, err
	}
	s.loop = loop
	return s, nil
}

func newSession(id string, settings Settings, delegates *gesture.Registry, opts SessionOptions, ticks progress.TickSource, scheduler gesture.Scheduler) (*Session, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	s := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		settings:    settings,
		delegates:   delegates,
		subscribers: make(map[int]chan Event),
	}

	ctx := delegates.Register(newDelegate(s, opts.Items), opts.SourceRegion, opts.SourceRect)
	s.key = ctx.Delegate
	s.surface = presentation.NewSurface(settings.Presentation, nil)
	s.controller = gesture.NewController(settings.Gesture, delegates, ctx, &recordingPort{Surface: s.surface, s: s}, ticks, scheduler)
	s.controller.OnStateChange(func(from, to gesture.State) {
		s.record(EventState, map[string]gesture.State{"from": from, "to": to})
	})
	return s, nil
}

// exec runs fn serialized with every other call on the session.
func (s *Session) exec(fn func() error) error {
	if s.loop != nil {
		var err error
		if doErr := s.loop.Do(context.Background(), func() { err = s.guarded(fn) }); doErr != nil {
			return doErr
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guarded(fn)
}

func (s *Session) guarded(fn func() error) error {
	if s.closed {
		return ErrSessionClosed
	}
	return fn()
}

// Touch feeds a sample of the primary press.
func (s *Session) Touch(sample types.TouchSample) error {
	return s.exec(func() error {
		return s.controller.HandleTouch(sample)
	})
}

// SurfaceTouch feeds a touch on the anchored preview.
func (s *Session) SurfaceTouch(sample types.TouchSample) error {
	return s.exec(func() error {
		return s.controller.HandleSurfaceTouch(sample)
	})
}

// TapAction taps the action button.
func (s *Session) TapAction() error {
	return s.exec(s.controller.TapActionButton)
}

// Tick delivers up to n display refresh ticks and returns how many were
// delivered. It stops early once the animation is idle.
func (s *Session) Tick(n int) (int, error) {
	delivered := 0
	err := s.exec(func() error {
		if s.ticker == nil {
			return ErrRealtime
		}
		delivered = s.ticker.Run(n)
		return nil
	})
	return delivered, err
}

// Advance moves the session clock, running due timers, and returns how many
// ran.
func (s *Session) Advance(d time.Duration) (int, error) {
	fired := 0
	err := s.exec(func() error {
		if s.scheduler == nil {
			return ErrRealtime
		}
		fired = s.scheduler.Advance(d)
		return nil
	})
	return fired, err
}

// Wait simulates d of wall time: one tick per refresh interval, with timers
// due in between run first.
func (s *Session) Wait(d time.Duration) error {
	return s.exec(func() error {
		if s.scheduler == nil {
			return ErrRealtime
		}
		frame := s.settings.RefreshInterval
		if frame <= 0 {
			frame = runloop.DefaultInterval
		}
		for d >= frame {
			s.scheduler.Advance(frame)
			s.ticker.Fire()
			d -= frame
		}
		s.scheduler.Advance(d)
		return nil
	})
}

// Reset tears the gesture down.
func (s *Session) Reset() error {
	return s.exec(func() error {
		s.controller.Reset()
		return nil
	})
}

// State returns a consistent snapshot of the session.
func (s *Session) State() (State, error) {
	var st State
	err := s.exec(func() error {
		st = State{
			ID:        s.ID,
			Realtime:  s.loop != nil,
			Gesture:   s.controller.Snapshot(),
			Frame:     s.surface.Frame(),
			CreatedAt: s.CreatedAt,
		}
		if s.scheduler != nil {
			st.ClockMs = s.scheduler.Now().Milliseconds()
			st.Ticks = s.ticker.Fired()
		} else {
			st.Ticks = int(s.loop.Ticks())
		}
		return nil
	})
	if err != nil {
		return State{}, err
	}

	s.evMu.Lock()
	st.Shown = s.shown
	st.Commits = append([]string{}, s.commits...)
	st.Actions = append([]string{}, s.actions...)
	s.evMu.Unlock()
	return st, nil
}

// Close resets the gesture, releases the delegate and ends all
// subscriptions. Closing twice is harmless.
func (s *Session) Close() {
	teardown := func() {
		if s.closed {
			return
		}
		s.controller.Reset()
		s.closed = true
	}

	if s.loop == nil || s.loop.Do(context.Background(), teardown) != nil {
		s.mu.Lock()
		teardown()
		s.mu.Unlock()
	}

	s.delegates.Release(s.key)

	s.evMu.Lock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.evMu.Unlock()
	utils.Verbose("Closed session %s", s.ID)
}

func (s *Session) recordCommit(id string) {
	s.evMu.Lock()
	s.commits = append(s.commits, id)
	s.evMu.Unlock()
	s.record(EventCommit, id)
}

func (s *Session) recordAction(id string) {
	s.evMu.Lock()
	s.actions = append(s.actions, id)
	s.evMu.Unlock()
	s.record(EventAction, id)
}

func (s *Session) recordShown(shown bool) {
	s.evMu.Lock()
	s.shown = shown
	s.evMu.Unlock()
	s.record(EventShown, shown)
}
