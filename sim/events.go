package sim

import (
	"time"

	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/presentation"
	"github.com/mobile-next/peekpop/types"
	"github.com/mobile-next/peekpop/utils"
)

// EventKind names what happened in a session.
type EventKind string

const (
	EventState    EventKind = "state"
	EventPresent  EventKind = "present"
	EventMove     EventKind = "move"
	EventProgress EventKind = "progress"
	EventAnchor   EventKind = "anchor"
	EventButton   EventKind = "button"
	EventTeardown EventKind = "teardown"
	EventShown    EventKind = "shown"
	EventCommit   EventKind = "commit"
	EventAction   EventKind = "action"
)

type Event struct {
	Seq     int         `json:"seq"`
	Session string      `json:"session"`
	Kind    EventKind   `json:"kind"`
	Data    interface{} `json:"data,omitempty"`
	Time    time.Time   `json:"time"`
}

func (s *Session) record(kind EventKind, data interface{}) {
	s.evMu.Lock()
	defer s.evMu.Unlock()

	s.seq++
	ev := Event{Seq: s.seq, Session: s.ID, Kind: kind, Data: data, Time: time.Now()}
	s.events = append(s.events, ev)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}

	for id, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			utils.Verbose("Dropping event %d for slow subscriber %d of session %s", ev.Seq, id, s.ID)
		}
	}
}

// Events returns the retained events with a sequence number above since.
func (s *Session) Events(since int) []Event {
	s.evMu.Lock()
	defer s.evMu.Unlock()

	out := []Event{}
	for _, ev := range s.events {
		if ev.Seq > since {
			out = append(out, ev)
		}
	}
	return out
}

// Subscribe streams new events until cancel is called or the session closes,
// which closes the channel. Events are dropped for a subscriber that falls
// behind.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.evMu.Lock()
	defer s.evMu.Unlock()

	ch := make(chan Event, subscriberBuf)
	s.nextSub++
	id := s.nextSub
	s.subscribers[id] = ch

	return ch, func() {
		s.evMu.Lock()
		defer s.evMu.Unlock()
		if existing, ok := s.subscribers[id]; ok {
			close(existing)
			delete(s.subscribers, id)
		}
	}
}

// recordingPort forwards to the surface and logs each call as an event.
type recordingPort struct {
	*presentation.Surface
	s *Session
}

func (p *recordingPort) Present(preview gesture.Preview) bool {
	button := p.Surface.Present(preview)
	p.s.record(EventPresent, preview)
	return button
}

func (p *recordingPort) MoveSurface(offset types.Point) {
	p.Surface.MoveSurface(offset)
	p.s.record(EventMove, offset)
}

func (p *recordingPort) ResizeOrTransform(progress float64) {
	p.Surface.ResizeOrTransform(progress)
	p.s.record(EventProgress, progress)
}

func (p *recordingPort) AnchorToTop(offset float64) {
	p.Surface.AnchorToTop(offset)
	p.s.record(EventAnchor, offset)
}

func (p *recordingPort) ShowActionButton(show bool) {
	p.Surface.ShowActionButton(show)
	p.s.record(EventButton, show)
}

func (p *recordingPort) Teardown() {
	p.Surface.Teardown()
	p.s.record(EventTeardown, nil)
}
