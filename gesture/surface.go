package gesture

import (
	"errors"
	"fmt"

	"github.com/mobile-next/peekpop/touch"
	"github.com/mobile-next/peekpop/types"
)

// HandleSurfaceTouch feeds a touch on the anchored preview itself. It is
// only accepted in anchored-lock: dragging moves the preview, a harder press
// pops it, and releasing away from the top dismisses it.
func (c *Controller) HandleSurfaceTouch(sample types.TouchSample) error {
	if !c.surfaceInstalled || c.state != StateAnchoredLock {
		return fmt.Errorf("%w: no anchored preview", ErrInvalidTouch)
	}

	switch sample.Phase {
	case types.PhaseBegan:
		region := types.NewRect(types.Point{}, c.port.Metrics().Surface)
		_, err := c.surface.Begin(sample, region)
		if errors.Is(err, touch.ErrSessionActive) {
			return ErrConcurrentGesture
		}
		return err

	case types.PhaseMoved:
		d, ok := c.surface.Move(sample)
		if !ok {
			return nil
		}
		c.follow(c.surface, d, c.cfg.AnchoredTopThreshold)
		if c.surface.Escalated(sample.Radius) {
			c.escalate()
		}

	case types.PhaseEnded, types.PhaseCancelled:
		session := c.surface.Session()
		if session == nil {
			return nil
		}
		anchored := session.Anchored
		c.surface.End()
		if anchored {
			c.port.AnchorToTop(c.cfg.AnchorOffset)
		} else {
			c.dismiss()
		}

	default:
		return fmt.Errorf("unknown touch phase '%s'", sample.Phase)
	}
	return nil
}
