// Package gesture sequences a press-and-hold preview gesture: it turns
// tracked touches into progress targets, drives the presentation, and
// decides between committing the preview and dismissing it.
package gesture

import (
	"errors"
	"fmt"

	"github.com/mobile-next/peekpop/progress"
	"github.com/mobile-next/peekpop/touch"
	"github.com/mobile-next/peekpop/types"
	"github.com/mobile-next/peekpop/utils"
)

// Controller is the gesture state machine for one preview context. It is not
// safe for concurrent use: touches, ticks and scheduled callbacks must all
// arrive on one goroutine.
type Controller struct {
	cfg       Config
	registry  *Registry
	context   PreviewContext
	port      PresentationPort
	scheduler Scheduler

	animator *progress.Animator
	primary  *touch.Tracker
	surface  *touch.Tracker

	state   State
	outcome Outcome

	handle           PreviewHandle
	presented        bool
	surfaceInstalled bool
	buttonAvailable  bool
	buttonShown      bool
	buttonAction     func()
	cancelDebounce   func()

	observers []func(from, to State)
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	State          State   `json:"state"`
	Outcome        Outcome `json:"outcome,omitempty"`
	Progress       float64 `json:"progress"`
	Target         float64 `json:"target"`
	Ticking        bool    `json:"ticking"`
	Anchored       bool    `json:"anchored"`
	ButtonShown    bool    `json:"buttonShown"`
	SurfaceGesture bool    `json:"surfaceGesture"`
}

func NewController(cfg Config, registry *Registry, context PreviewContext, port PresentationPort, ticks progress.TickSource, scheduler Scheduler) *Controller {
	c := &Controller{
		cfg:       cfg,
		registry:  registry,
		context:   context,
		port:      port,
		scheduler: scheduler,
		primary:   touch.NewTracker(cfg.Tracking),
		surface:   touch.NewTracker(cfg.Tracking),
		state:     StateIdle,
	}
	c.animator = progress.NewAnimator(cfg.Animation, ticks, animatorEvents{c})
	return c
}

// OnStateChange registers fn to be called after every transition.
func (c *Controller) OnStateChange(fn func(from, to State)) {
	c.observers = append(c.observers, fn)
}

func (c *Controller) State() State            { return c.state }
func (c *Controller) Outcome() Outcome        { return c.outcome }
func (c *Controller) Progress() float64       { return c.animator.Progress() }
func (c *Controller) Target() float64         { return c.animator.Target() }
func (c *Controller) Context() PreviewContext { return c.context }
func (c *Controller) SurfaceInstalled() bool  { return c.surfaceInstalled }

func (c *Controller) Snapshot() Snapshot {
	anchored := false
	if s := c.primary.Session(); s != nil {
		anchored = s.Anchored
	} else if s := c.surface.Session(); s != nil {
		anchored = s.Anchored
	} else {
		anchored = c.state == StateAnchoredLock
	}

	return Snapshot{
		State:          c.state,
		Outcome:        c.outcome,
		Progress:       c.animator.Progress(),
		Target:         c.animator.Target(),
		Ticking:        c.animator.Ticking(),
		Anchored:       anchored,
		ButtonShown:    c.buttonShown,
		SurfaceGesture: c.surfaceInstalled,
	}
}

// HandleTouch routes a raw sample of the primary press by phase.
func (c *Controller) HandleTouch(sample types.TouchSample) error {
	switch sample.Phase {
	case types.PhaseBegan:
		return c.TouchBegan(sample)
	case types.PhaseMoved:
		c.TouchMoved(sample)
	case types.PhaseEnded:
		c.TouchEnded(sample)
	case types.PhaseCancelled:
		c.TouchCancelled(sample)
	default:
		return fmt.Errorf("unknown touch phase '%s'", sample.Phase)
	}
	return nil
}

// TouchBegan starts a gesture. Nothing becomes visible until the debounce
// elapses, and a failure here has no visible effect at all.
func (c *Controller) TouchBegan(sample types.TouchSample) error {
	if c.state != StateIdle {
		utils.Verbose("Ignoring touch at %+v: gesture is %s", sample.Location, c.state)
		return ErrConcurrentGesture
	}

	session, err := c.primary.Begin(sample, c.context.SourceRegion)
	if err != nil {
		c.outcome = OutcomeFailed
		if errors.Is(err, touch.ErrSessionActive) {
			return ErrConcurrentGesture
		}
		return err
	}

	delegate, ok := c.lookupDelegate()
	if !ok || delegate.Build == nil || delegate.Build(session.Start) == nil {
		utils.Verbose("Nothing to preview at %+v", session.Start)
		c.primary.End()
		c.outcome = OutcomeFailed
		return ErrNoPreviewAvailable
	}

	c.outcome = OutcomeNone
	c.setState(StatePending)
	c.cancelDebounce = c.scheduler.AfterFunc(c.cfg.Debounce, c.confirm)
	return nil
}

func (c *Controller) TouchMoved(sample types.TouchSample) {
	switch c.state {
	case StatePending:
		// only pressure changes are tolerated while the press is unconfirmed
		session := c.primary.Session()
		moved := session != nil && sample.Location != session.Last.Location
		c.primary.Move(sample)
		if moved {
			utils.Verbose("Touch moved before the long press elapsed")
			c.abandon()
		}

	case StateConfirmed, StatePreviewing, StateAnchored:
		d, ok := c.primary.Move(sample)
		if !ok {
			return
		}
		c.follow(c.primary, d, c.cfg.EngageTopThreshold)
		if c.primary.Escalated(sample.Radius) {
			c.escalate()
		}
	}
}

func (c *Controller) TouchEnded(sample types.TouchSample) {
	c.release()
}

// TouchCancelled is handled exactly like a release.
func (c *Controller) TouchCancelled(sample types.TouchSample) {
	c.release()
}

// TapActionButton runs the delegate's button action and dismisses the
// preview at once.
func (c *Controller) TapActionButton() error {
	if !c.state.previewActive() || !c.buttonShown || !c.buttonAvailable {
		return ErrActionUnavailable
	}

	action := c.buttonAction
	c.finish(OutcomeAction)
	if action != nil {
		action()
	}
	return nil
}

// Reset tears everything down immediately, whatever the state.
func (c *Controller) Reset() {
	if c.state == StateIdle {
		return
	}
	c.finish(OutcomeReset)
}

func (c *Controller) lookupDelegate() (*Delegate, bool) {
	if c.registry == nil {
		return nil, false
	}
	return c.registry.Lookup(c.context.Delegate)
}

func (c *Controller) confirm() {
	c.cancelDebounce = nil
	if c.state != StatePending {
		return
	}

	session := c.primary.Session()
	if !c.check(session != nil, "long press confirmed without a tracked touch") {
		c.finish(OutcomeFailed)
		return
	}
	if !c.primary.Valid() {
		utils.Verbose("Touch left the source region before the long press elapsed")
		c.abandon()
		return
	}

	delegate, ok := c.lookupDelegate()
	if !ok || delegate.Build == nil {
		c.abandon()
		return
	}
	handle := delegate.Build(session.Start)
	if handle == nil {
		utils.Verbose("Delegate declined the preview at %+v", session.Start)
		c.abandon()
		return
	}

	preview := Preview{
		Handle:          handle,
		Location:        session.Start,
		SourceRect:      c.context.SourceRect,
		ButtonAvailable: true,
	}
	if delegate.Title != nil {
		if title, ok := delegate.Title(handle); ok {
			preview.Title = title
		}
	}
	if delegate.ButtonEnabled != nil {
		preview.ButtonAvailable = delegate.ButtonEnabled(handle, preview.ButtonAvailable)
	}
	if delegate.ButtonAction != nil {
		c.buttonAction = delegate.ButtonAction(handle)
	}

	c.handle = handle
	c.presented = true
	c.buttonAvailable = c.port.Present(preview) && preview.ButtonAvailable
	c.notifyShown(true)

	c.primary.Rebase()
	c.setState(StateConfirmed)
	c.animator.SetTarget(c.cfg.PreviewThreshold)
}

// follow applies a displacement to the preview when it stays in bounds.
func (c *Controller) follow(tracker *touch.Tracker, d touch.Displacement, topThreshold float64) {
	posture := tracker.Classify(d, c.port.Metrics(), topThreshold)
	if !posture.InBounds {
		return
	}

	c.port.MoveSurface(types.Point{X: 0, Y: d.Local.Y})
	tracker.Session().Anchored = posture.TouchingTop
	c.showButton(posture.TouchingTop)

	if c.state == StateAnchoredLock {
		return
	}
	if posture.TouchingTop {
		c.setState(StateAnchored)
	} else if c.state == StateAnchored {
		c.setState(StatePreviewing)
	}
}

func (c *Controller) escalate() {
	commit := c.cfg.Animation.CommitThreshold
	if c.animator.Target() >= commit {
		return
	}
	utils.Verbose("Pressure escalation, fast-forwarding to commit")
	c.animator.SetTarget(commit)
}

func (c *Controller) showButton(show bool) {
	show = show && c.buttonAvailable
	if c.buttonShown == show {
		return
	}
	c.buttonShown = show
	c.port.ShowActionButton(show)
}

func (c *Controller) release() {
	switch c.state {
	case StatePending:
		c.abandon()

	case StateConfirmed, StatePreviewing, StateAnchored:
		session := c.primary.Session()
		anchored := session != nil && session.Anchored
		c.primary.End()
		if anchored {
			c.lock()
		} else {
			c.dismiss()
		}
	}
}

// lock pins the preview to the top and hands further touches to the
// surface gesture.
func (c *Controller) lock() {
	c.port.AnchorToTop(c.cfg.AnchorOffset)
	c.surfaceInstalled = true
	c.setState(StateAnchoredLock)
}

// abandon cancels a gesture that never showed anything.
func (c *Controller) abandon() {
	c.setState(StateCancelled)
	c.finish(OutcomeCancelled)
}

// dismiss lets the preview decay; teardown follows when progress reaches 0.
func (c *Controller) dismiss() {
	c.setState(StateCancelled)
	if c.animator.Progress() == 0 {
		c.finish(OutcomeCancelled)
		return
	}
	c.animator.SetTarget(0)
}

func (c *Controller) finish(outcome Outcome) {
	if c.cancelDebounce != nil {
		c.cancelDebounce()
		c.cancelDebounce = nil
	}
	c.animator.Reset()
	c.primary.End()
	c.surface.End()
	c.surfaceInstalled = false
	c.buttonAvailable = false
	c.buttonShown = false
	c.buttonAction = nil
	c.handle = nil

	if c.presented {
		c.presented = false
		c.port.Teardown()
		c.notifyShown(false)
	}

	c.outcome = outcome
	c.setState(StateIdle)
}

func (c *Controller) notifyShown(shown bool) {
	delegate, ok := c.lookupDelegate()
	if !ok || delegate.Visibility == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			utils.Warn("Visibility hook failed: %v", r)
		}
	}()
	delegate.Visibility.OnShown(shown)
}

func (c *Controller) setState(next State) {
	prev := c.state
	if prev == next {
		return
	}
	c.state = next
	utils.Verbose("Gesture state %s -> %s", prev, next)
	for _, fn := range c.observers {
		fn(prev, next)
	}
}

func (c *Controller) progressChanged(p float64) {
	if !c.check(c.presented, "progress %.2f without a presented preview", p) {
		return
	}
	c.port.ResizeOrTransform(p)
	if c.state == StateConfirmed {
		c.setState(StatePreviewing)
	}
}

func (c *Controller) ended() {
	c.check(c.state == StateCancelled, "preview decayed while %s", c.state)
	c.finish(OutcomeCancelled)
}

func (c *Controller) committed() {
	if !c.check(c.state.previewActive() && c.handle != nil, "commit reached while %s", c.state) {
		return
	}

	handle := c.handle
	c.setState(StateCommitting)
	if delegate, ok := c.lookupDelegate(); ok && delegate.Commit != nil {
		delegate.Commit.Commit(handle)
	}
	c.finish(OutcomeCommitted)
}

type animatorEvents struct {
	c *Controller
}

func (e animatorEvents) ProgressChanged(p float64) { e.c.progressChanged(p) }
func (e animatorEvents) Ended()                    { e.c.ended() }
func (e animatorEvents) Committed()                { e.c.committed() }
