package commands

import (
	"fmt"

	"github.com/mobile-next/peekpop/sim"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// sessionRegistry holds the simulator sessions.
// It is set once at startup via SetRegistry, after the configuration is
// loaded, and closed on graceful shutdown (SIGINT/SIGTERM).
var sessionRegistry *sim.Registry

// SetRegistry sets the global session registry.
func SetRegistry(registry *sim.Registry) {
	sessionRegistry = registry
}

// GetRegistry returns the current session registry.
// Returns nil if SetRegistry has not been called yet.
func GetRegistry() *sim.Registry {
	return sessionRegistry
}

// FindSession looks up a session by ID
func FindSession(sessionID string) (*sim.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	if sessionRegistry == nil {
		return nil, fmt.Errorf("session registry is not initialized")
	}
	return sessionRegistry.Get(sessionID)
}
