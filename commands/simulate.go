package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/mobile-next/peekpop/sim"
)

// SimulateRequest represents the parameters for replaying a gesture script
type SimulateRequest struct {
	ScriptPath string `json:"scriptPath"`
	Realtime   bool   `json:"realtime"`
}

// SimulateCommand replays a script in a fresh, unregistered session
func SimulateCommand(ctx context.Context, req SimulateRequest) *CommandResponse {
	if req.ScriptPath == "" {
		return NewErrorResponse(fmt.Errorf("script path is required"))
	}
	if sessionRegistry == nil {
		return NewErrorResponse(fmt.Errorf("session registry is not initialized"))
	}

	f, err := os.Open(req.ScriptPath)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to open script: %v", err))
	}
	defer f.Close()

	script, err := sim.ParseScript(f)
	if err != nil {
		return NewErrorResponse(err)
	}

	settings := sessionRegistry.Settings()
	var result *sim.Result
	if req.Realtime {
		result, err = script.ReplayRealtime(ctx, settings)
	} else {
		result, err = script.Replay(settings)
	}
	if err != nil {
		return NewErrorResponse(fmt.Errorf("replay failed: %v", err))
	}
	return NewSuccessResponse(result)
}
