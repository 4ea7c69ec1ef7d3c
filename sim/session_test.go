package sim

import (
	"testing"
	"time"

	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/presentation"
	"github.com/mobile-next/peekpop/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() Settings {
	cfg := gesture.DefaultConfig()
	cfg.StrictInvariants = true
	opts := presentation.DefaultOptions(types.Size{Width: 375, Height: 667})
	opts.ShowActionButton = true
	return Settings{
		Gesture:         cfg,
		Presentation:    opts,
		MaxSessions:     2,
		RefreshInterval: 10 * time.Millisecond,
	}
}

var noButton = false

func testOptions() SessionOptions {
	return SessionOptions{
		SourceRegion: types.Rect{X: 0, Y: 200, Width: 375, Height: 100},
		Items: []Item{
			{ID: "a", Rect: types.Rect{Width: 100, Height: 100}, Title: "Alpha"},
			{ID: "b", Rect: types.Rect{X: 100, Width: 100, Height: 100}, Button: &noButton},
		},
	}
}

func sample(phase types.TouchPhase, x, y, radius float64) types.TouchSample {
	p := types.Point{X: x, Y: y}
	return types.TouchSample{Location: p, Window: p, Radius: radius, Phase: phase}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession("test", testSettings(), gesture.NewRegistry(), testOptions())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestSession_PressEscalateCommit(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Touch(sample(types.PhaseBegan, 50, 250, 6)))
	fired, err := s.Advance(200 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	delivered, err := s.Tick(100)
	require.NoError(t, err)
	assert.Equal(t, 33, delivered)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, gesture.StatePreviewing, st.Gesture.State)
	assert.True(t, st.Shown)
	assert.Equal(t, "Alpha", st.Frame.Title)
	assert.Equal(t, presentation.StageExpand, st.Frame.Stage)
	assert.Equal(t, int64(200), st.ClockMs)

	require.NoError(t, s.Touch(sample(types.PhaseMoved, 50, 260, 12)))
	_, err = s.Tick(100)
	require.NoError(t, err)

	st, err = s.State()
	require.NoError(t, err)
	assert.Equal(t, gesture.StateIdle, st.Gesture.State)
	assert.Equal(t, gesture.OutcomeCommitted, st.Gesture.Outcome)
	assert.Equal(t, []string{"a"}, st.Commits)
	assert.False(t, st.Shown)
	assert.False(t, st.Frame.Presented)

	events := kinds(s.Events(0))
	assert.Contains(t, events, EventPresent)
	assert.Contains(t, events, EventCommit)
	assert.Equal(t, EventState, events[len(events)-1])
}

func TestSession_NothingToPreview(t *testing.T) {
	s := newTestSession(t)

	err := s.Touch(sample(types.PhaseBegan, 300, 250, 6))
	assert.ErrorIs(t, err, gesture.ErrNoPreviewAvailable)

	err = s.Touch(sample(types.PhaseBegan, 300, 100, 6))
	assert.ErrorIs(t, err, gesture.ErrInvalidTouch)
}

func TestSession_ItemButtonOverride(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Touch(sample(types.PhaseBegan, 150, 250, 6)))
	require.NoError(t, s.Wait(time.Second))
	require.NoError(t, s.Touch(sample(types.PhaseMoved, 150, 60, 6)))

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, gesture.StateAnchored, st.Gesture.State)
	assert.False(t, st.Gesture.ButtonShown)
	assert.ErrorIs(t, s.TapAction(), gesture.ErrActionUnavailable)
}

func TestSession_ActionTap(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Touch(sample(types.PhaseBegan, 50, 250, 6)))
	require.NoError(t, s.Wait(time.Second))
	require.NoError(t, s.Touch(sample(types.PhaseMoved, 50, 60, 6)))
	require.NoError(t, s.Touch(sample(types.PhaseEnded, 50, 60, 6)))
	require.NoError(t, s.TapAction())

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, st.Actions)
	assert.Empty(t, st.Commits)
	assert.Equal(t, gesture.OutcomeAction, st.Gesture.Outcome)
}

func TestSession_ItemButtonNeedsSurfaceButton(t *testing.T) {
	settings := testSettings()
	settings.Presentation.ShowActionButton = false
	yes := true
	s, err := NewSession("test", settings, gesture.NewRegistry(), SessionOptions{
		SourceRegion: types.Rect{X: 0, Y: 200, Width: 375, Height: 100},
		Items:        []Item{{ID: "a", Rect: types.Rect{Width: 375, Height: 100}, Button: &yes}},
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Touch(sample(types.PhaseBegan, 50, 250, 6)))
	require.NoError(t, s.Wait(time.Second))
	require.NoError(t, s.Touch(sample(types.PhaseMoved, 50, 60, 6)))

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, gesture.StateAnchored, st.Gesture.State)
	assert.False(t, st.Gesture.ButtonShown)
	assert.False(t, st.Frame.Button.Enabled)
	assert.False(t, st.Frame.Button.Visible)

	assert.ErrorIs(t, s.TapAction(), gesture.ErrActionUnavailable)
	st, err = s.State()
	require.NoError(t, err)
	assert.Empty(t, st.Actions)
	assert.Equal(t, gesture.StateAnchored, st.Gesture.State)
}

func TestSession_MissingRadiusDoesNotEscalate(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Touch(sample(types.PhaseBegan, 50, 250, 0)))
	require.NoError(t, s.Wait(time.Second))
	require.NoError(t, s.Touch(sample(types.PhaseMoved, 50, 250, 20)))
	_, err := s.Tick(200)
	require.NoError(t, err)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, gesture.StatePreviewing, st.Gesture.State)
	assert.Equal(t, gesture.DefaultConfig().PreviewThreshold, st.Gesture.Target)
	assert.Empty(t, st.Commits)
}

func TestSession_SubscribeAndClose(t *testing.T) {
	s, err := NewSession("sub", testSettings(), gesture.NewRegistry(), testOptions())
	require.NoError(t, err)

	events, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Touch(sample(types.PhaseBegan, 50, 250, 6)))
	ev := <-events
	assert.Equal(t, EventState, ev.Kind)
	assert.Equal(t, "sub", ev.Session)

	s.Close()
	for range events {
	}
	assert.ErrorIs(t, s.Touch(sample(types.PhaseBegan, 50, 250, 6)), ErrSessionClosed)
	_, err = s.State()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_EventsSince(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Touch(sample(types.PhaseBegan, 50, 250, 6)))
	require.NoError(t, s.Touch(sample(types.PhaseEnded, 50, 250, 6)))

	all := s.Events(0)
	require.Len(t, all, 3)
	assert.Len(t, s.Events(all[0].Seq), 2)
}

func TestSession_RejectsEmptyRegion(t *testing.T) {
	_, err := NewSession("bad", testSettings(), gesture.NewRegistry(), SessionOptions{})
	assert.Error(t, err)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r, err := NewRegistry(testSettings())
	require.NoError(t, err)

	first, err := r.Create(testOptions())
	require.NoError(t, err)
	second, err := r.Create(testOptions())
	require.NoError(t, err)
	third, err := r.Create(testOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	_, err = r.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, first.Touch(sample(types.PhaseBegan, 50, 250, 6)), ErrSessionClosed)
	assert.Equal(t, 2, r.Delegates().Len())

	got, err := r.Get(second.ID)
	require.NoError(t, err)
	assert.Same(t, second, got)

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, gesture.StateIdle, infos[0].State)

	require.NoError(t, r.Close(third.ID))
	assert.ErrorIs(t, r.Close(third.ID), ErrSessionNotFound)

	r.CloseAll()
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Delegates().Len())
}
