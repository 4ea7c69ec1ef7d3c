package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mobile-next/peekpop/commands"
)

// HandlerFunc is the signature for non-streaming JSON-RPC method handlers
type HandlerFunc func(params json.RawMessage) (interface{}, error)

var errInvalidParams = errors.New("invalid parameters")

// GetMethodRegistry returns a map of method names to handler functions
// This is used by both the HTTP server and the WebSocket endpoint
func GetMethodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"sessions_list":         handleSessionsList,
		"session_create":        handleSessionCreate,
		"session_touch":         handleSessionTouch,
		"session_surface_touch": handleSessionSurfaceTouch,
		"session_tick":          handleSessionTick,
		"session_advance":       handleSessionAdvance,
		"session_action_tap":    handleSessionActionTap,
		"session_state":         handleSessionState,
		"session_reset":         handleSessionReset,
		"session_close":         handleSessionClose,
	}
}

// Execute dispatches a method call using the registry
func Execute(method string, params json.RawMessage) (interface{}, error) {
	handler, exists := GetMethodRegistry()[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}

	return handler(params)
}

// decodeParams unmarshals params into v, naming the expected fields on error
func decodeParams(params json.RawMessage, v interface{}, fields string) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: 'params' is required with fields: %s", errInvalidParams, fields)
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v. Expected fields: %s", errInvalidParams, err, fields)
	}
	return nil
}

// result unwraps a command response into a JSON-RPC result
func result(response *commands.CommandResponse) (interface{}, error) {
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return response.Data, nil
}

func handleSessionsList(params json.RawMessage) (interface{}, error) {
	return result(commands.SessionsListCommand())
}

func handleSessionCreate(params json.RawMessage) (interface{}, error) {
	var req commands.SessionCreateRequest
	if err := decodeParams(params, &req, "sourceRegion, sourceRect, items"); err != nil {
		return nil, err
	}
	return result(commands.SessionCreateCommand(req))
}

func handleSessionTouch(params json.RawMessage) (interface{}, error) {
	var req commands.SessionTouchRequest
	if err := decodeParams(params, &req, "sessionId, phase, x, y, radius"); err != nil {
		return nil, err
	}
	return result(commands.SessionTouchCommand(req))
}

func handleSessionSurfaceTouch(params json.RawMessage) (interface{}, error) {
	var req commands.SessionTouchRequest
	if err := decodeParams(params, &req, "sessionId, phase, x, y, radius"); err != nil {
		return nil, err
	}
	return result(commands.SessionSurfaceTouchCommand(req))
}

func handleSessionTick(params json.RawMessage) (interface{}, error) {
	var req commands.SessionTickRequest
	if err := decodeParams(params, &req, "sessionId, count"); err != nil {
		return nil, err
	}
	return result(commands.SessionTickCommand(req))
}

func handleSessionAdvance(params json.RawMessage) (interface{}, error) {
	var req commands.SessionAdvanceRequest
	if err := decodeParams(params, &req, "sessionId, duration"); err != nil {
		return nil, err
	}
	return result(commands.SessionAdvanceCommand(req))
}

func handleSessionActionTap(params json.RawMessage) (interface{}, error) {
	var req commands.SessionRequest
	if err := decodeParams(params, &req, "sessionId"); err != nil {
		return nil, err
	}
	return result(commands.SessionActionTapCommand(req))
}

func handleSessionState(params json.RawMessage) (interface{}, error) {
	var req commands.SessionStateRequest
	if err := decodeParams(params, &req, "sessionId, since"); err != nil {
		return nil, err
	}
	return result(commands.SessionStateCommand(req))
}

func handleSessionReset(params json.RawMessage) (interface{}, error) {
	var req commands.SessionRequest
	if err := decodeParams(params, &req, "sessionId"); err != nil {
		return nil, err
	}
	return result(commands.SessionResetCommand(req))
}

func handleSessionClose(params json.RawMessage) (interface{}, error) {
	var req commands.SessionRequest
	if err := decodeParams(params, &req, "sessionId"); err != nil {
		return nil, err
	}
	return result(commands.SessionCloseCommand(req))
}
