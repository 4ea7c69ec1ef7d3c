// Package runloop runs a gesture in real time. A Loop owns one goroutine
// that serializes posted input, display refresh ticks and delayed calls, so
// the controller never sees concurrent callbacks.
package runloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mobile-next/peekpop/utils"
)

// DefaultInterval approximates a 60Hz display refresh.
const DefaultInterval = time.Second / 60

var ErrStopped = errors.New("run loop is not running")

// Loop implements progress.TickSource and gesture.Scheduler. Start, Stop
// and AfterFunc must be called from callbacks running on the loop; Post and
// Do are safe from any goroutine.
type Loop struct {
	interval time.Duration
	posts    chan func()
	done     chan struct{}
	stopOnce sync.Once

	tick   func()
	ticker *time.Ticker
	ticks  atomic.Int64
}

func New(interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		interval: interval,
		posts:    make(chan func(), 64),
		done:     make(chan struct{}),
	}
}

// Run processes callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.done) })
	defer l.Stop()

	utils.Verbose("Run loop started with a %v refresh interval", l.interval)
	for {
		var tickC <-chan time.Time
		if l.ticker != nil {
			tickC = l.ticker.C
		}

		select {
		case <-ctx.Done():
			utils.Verbose("Run loop stopped: %v", ctx.Err())
			return ctx.Err()
		case fn := <-l.posts:
			fn()
		case <-tickC:
			if l.tick != nil {
				l.ticks.Add(1)
				l.tick()
			}
		}
	}
}

// Post queues fn to run on the loop. It returns ErrStopped once the loop has
// exited.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.posts <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start subscribes tick to the display refresh, replacing any earlier
// subscription.
func (l *Loop) Start(tick func()) {
	l.tick = tick
	if l.ticker == nil {
		l.ticker = time.NewTicker(l.interval)
	}
}

func (l *Loop) Stop() {
	l.tick = nil
	if l.ticker != nil {
		l.ticker.Stop()
		l.ticker = nil
	}
}

// Ticks counts refresh callbacks delivered so far.
func (l *Loop) Ticks() int64 {
	return l.ticks.Load()
}

// AfterFunc runs fn on the loop after d. The returned cancel must be called
// on the loop; a cancelled callback never runs.
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() {
	cancelled := false
	timer := time.AfterFunc(d, func() {
		_ = l.Post(func() {
			if !cancelled {
				fn()
			}
		})
	})
	return func() {
		cancelled = true
		timer.Stop()
	}
}
