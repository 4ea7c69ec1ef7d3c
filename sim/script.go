package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/runloop"
	"github.com/mobile-next/peekpop/types"
	"github.com/mobile-next/peekpop/utils"
)

// Step operations.
const (
	OpTouch        = "touch"
	OpSurfaceTouch = "surfaceTouch"
	OpWait         = "wait"
	OpTicks        = "ticks"
	OpTap          = "tap"
)

// Duration is a time.Duration written as a string such as "200ms".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"200ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Step is one scripted input.
type Step struct {
	Op       string           `json:"op"`
	Phase    types.TouchPhase `json:"phase,omitempty"`
	X        float64          `json:"x,omitempty"`
	Y        float64          `json:"y,omitempty"`
	Radius   float64          `json:"radius,omitempty"`
	Duration Duration         `json:"duration,omitempty"`
	Count    int              `json:"count,omitempty"`
}

func (s Step) sample() types.TouchSample {
	p := types.Point{X: s.X, Y: s.Y}
	return types.TouchSample{Location: p, Window: p, Radius: s.Radius, Phase: s.Phase}
}

type Script struct {
	Session SessionOptions `json:"session"`
	Steps   []Step         `json:"steps"`
}

// StepResult records a step that the controller rejected. Rejections are
// part of the replay, not failures of it.
type StepResult struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

type Result struct {
	Final    State        `json:"final"`
	Events   []Event      `json:"events"`
	Rejected []StepResult `json:"rejected,omitempty"`
}

// ParseScript decodes and checks a script.
func ParseScript(r io.Reader) (*Script, error) {
	var script Script
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	for i, step := range script.Steps {
		switch step.Op {
		case OpTouch, OpSurfaceTouch:
			phase, err := types.ParseTouchPhase(string(step.Phase))
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			script.Steps[i].Phase = phase
		case OpWait:
			if step.Duration < 0 {
				return nil, fmt.Errorf("step %d: negative wait", i)
			}
		case OpTicks:
			if step.Count <= 0 {
				return nil, fmt.Errorf("step %d: ticks needs a positive count", i)
			}
		case OpTap:
		default:
			return nil, fmt.Errorf("step %d: unknown op '%s'", i, step.Op)
		}
	}
	return &script, nil
}

// Replay runs the script on simulated time: waits advance the clock and
// deliver one tick per refresh interval.
func (sc *Script) Replay(settings Settings) (*Result, error) {
	s, err := NewSession(uuid.NewString(), settings, gesture.NewRegistry(), sc.Session)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return sc.run(s, func(step Step) error {
		switch step.Op {
		case OpWait:
			return s.Wait(time.Duration(step.Duration))
		case OpTicks:
			_, err := s.Tick(step.Count)
			return err
		}
		return nil
	})
}

// ReplayRealtime runs the script against wall time on a run loop.
func (sc *Script) ReplayRealtime(ctx context.Context, settings Settings) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := runloop.New(settings.RefreshInterval)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(ctx)
	}()
	defer func() {
		cancel()
		<-loopDone
	}()

	s, err := NewRealtimeSession(uuid.NewString(), settings, gesture.NewRegistry(), sc.Session, loop)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	frame := settings.RefreshInterval
	if frame <= 0 {
		frame = runloop.DefaultInterval
	}
	return sc.run(s, func(step Step) error {
		var d time.Duration
		switch step.Op {
		case OpWait:
			d = time.Duration(step.Duration)
		case OpTicks:
			d = time.Duration(step.Count) * frame
		default:
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	})
}

// run feeds input steps to s and hands time steps to wait.
func (sc *Script) run(s *Session, wait func(Step) error) (*Result, error) {
	result := &Result{}
	for i, step := range sc.Steps {
		var err error
		switch step.Op {
		case OpTouch:
			err = s.Touch(step.sample())
		case OpSurfaceTouch:
			err = s.SurfaceTouch(step.sample())
		case OpTap:
			err = s.TapAction()
		default:
			if err := wait(step); err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
			}
			continue
		}

		if err != nil {
			utils.Verbose("Step %d (%s) rejected: %v", i, step.Op, err)
			result.Rejected = append(result.Rejected, StepResult{Index: i, Op: step.Op, Error: err.Error()})
		}
	}

	final, err := s.State()
	if err != nil {
		return nil, err
	}
	result.Final = final
	result.Events = s.Events(0)
	return result, nil
}
