package commands

import (
	"fmt"
	"time"

	"github.com/mobile-next/peekpop/sim"
	"github.com/mobile-next/peekpop/types"
)

// SessionCreateRequest represents the parameters for creating a session
type SessionCreateRequest struct {
	SourceRegion types.Rect `json:"sourceRegion"`
	SourceRect   types.Rect `json:"sourceRect"`
	Items        []sim.Item `json:"items"`
}

// SessionRequest addresses a single session
type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

// SessionTouchRequest represents one raw touch sample
type SessionTouchRequest struct {
	SessionID string  `json:"sessionId"`
	Phase     string  `json:"phase"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	// Window defaults to (x, y) when the surface fills the window.
	Window *types.Point `json:"window,omitempty"`
}

// SessionTickRequest delivers display refresh ticks
type SessionTickRequest struct {
	SessionID string `json:"sessionId"`
	Count     int    `json:"count"`
}

// SessionAdvanceRequest moves the session clock
type SessionAdvanceRequest struct {
	SessionID string `json:"sessionId"`
	Duration  string `json:"duration"`
}

// SessionStateRequest reads a session and its events after a sequence number
type SessionStateRequest struct {
	SessionID string `json:"sessionId"`
	Since     int    `json:"since"`
}

func (r SessionTouchRequest) sample() (types.TouchSample, error) {
	phase, err := types.ParseTouchPhase(r.Phase)
	if err != nil {
		return types.TouchSample{}, err
	}
	if r.Radius < 0 {
		return types.TouchSample{}, fmt.Errorf("radius must be non-negative, got %v", r.Radius)
	}

	location := types.Point{X: r.X, Y: r.Y}
	window := location
	if r.Window != nil {
		window = *r.Window
	}
	return types.TouchSample{Location: location, Window: window, Radius: r.Radius, Phase: phase}, nil
}

// SessionCreateCommand creates a new simulator session
func SessionCreateCommand(req SessionCreateRequest) *CommandResponse {
	if sessionRegistry == nil {
		return NewErrorResponse(fmt.Errorf("session registry is not initialized"))
	}

	s, err := sessionRegistry.Create(sim.SessionOptions{
		SourceRegion: req.SourceRegion,
		SourceRect:   req.SourceRect,
		Items:        req.Items,
	})
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to create session: %v", err))
	}
	return stateResponse(s)
}

// SessionTouchCommand feeds a touch of the primary press
func SessionTouchCommand(req SessionTouchRequest) *CommandResponse {
	return touchCommand(req, "touch", (*sim.Session).Touch)
}

// SessionSurfaceTouchCommand feeds a touch on the anchored preview
func SessionSurfaceTouchCommand(req SessionTouchRequest) *CommandResponse {
	return touchCommand(req, "surface touch", (*sim.Session).SurfaceTouch)
}

func touchCommand(req SessionTouchRequest, what string, feed func(*sim.Session, types.TouchSample) error) *CommandResponse {
	sample, err := req.sample()
	if err != nil {
		return NewErrorResponse(err)
	}

	s, err := FindSession(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := feed(s, sample); err != nil {
		return NewErrorResponse(fmt.Errorf("%s %s rejected: %w", what, sample.Phase, err))
	}
	return stateResponse(s)
}

// SessionTickCommand delivers display refresh ticks
func SessionTickCommand(req SessionTickRequest) *CommandResponse {
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 0 {
		return NewErrorResponse(fmt.Errorf("count must be positive, got %d", req.Count))
	}

	s, err := FindSession(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	delivered, err := s.Tick(req.Count)
	if err != nil {
		return NewErrorResponse(err)
	}
	return stateResponseWith(s, map[string]interface{}{"delivered": delivered})
}

// SessionAdvanceCommand moves the session clock, running due timers
func SessionAdvanceCommand(req SessionAdvanceRequest) *CommandResponse {
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("invalid duration '%s': %v", req.Duration, err))
	}
	if d < 0 {
		return NewErrorResponse(fmt.Errorf("duration must not be negative, got %v", d))
	}

	s, err := FindSession(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	fired, err := s.Advance(d)
	if err != nil {
		return NewErrorResponse(err)
	}
	return stateResponseWith(s, map[string]interface{}{"fired": fired})
}

// SessionActionTapCommand taps the preview's action button
func SessionActionTapCommand(req SessionRequest) *CommandResponse {
	s, err := FindSession(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := s.TapAction(); err != nil {
		return NewErrorResponse(err)
	}
	return stateResponse(s)
}

// SessionStateCommand returns a session's state and recent events
func SessionStateCommand(req SessionStateRequest) *CommandResponse {
	s, err := FindSession(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}
	return stateResponseWith(s, map[string]interface{}{"events": s.Events(req.Since)})
}

// SessionResetCommand tears down the session's gesture
func SessionResetCommand(req SessionRequest) *CommandResponse {
	s, err := FindSession(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := s.Reset(); err != nil {
		return NewErrorResponse(err)
	}
	return stateResponse(s)
}

// SessionCloseCommand closes and forgets a session
func SessionCloseCommand(req SessionRequest) *CommandResponse {
	if req.SessionID == "" {
		return NewErrorResponse(fmt.Errorf("session ID is required"))
	}
	if sessionRegistry == nil {
		return NewErrorResponse(fmt.Errorf("session registry is not initialized"))
	}

	if err := sessionRegistry.Close(req.SessionID); err != nil {
		return NewErrorResponse(err)
	}
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Closed session %s", req.SessionID),
	})
}

// SessionsListCommand lists the open sessions
func SessionsListCommand() *CommandResponse {
	if sessionRegistry == nil {
		return NewErrorResponse(fmt.Errorf("session registry is not initialized"))
	}
	return NewSuccessResponse(map[string]interface{}{
		"sessions": sessionRegistry.List(),
	})
}

func stateResponse(s *sim.Session) *CommandResponse {
	return stateResponseWith(s, nil)
}

func stateResponseWith(s *sim.Session, extra map[string]interface{}) *CommandResponse {
	state, err := s.State()
	if err != nil {
		return NewErrorResponse(err)
	}

	data := map[string]interface{}{
		"sessionId": s.ID,
		"state":     state,
	}
	for k, v := range extra {
		data[k] = v
	}
	return NewSuccessResponse(data)
}
