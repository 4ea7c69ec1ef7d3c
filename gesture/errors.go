package gesture

import (
	"errors"
	"fmt"

	"github.com/mobile-next/peekpop/touch"
	"github.com/mobile-next/peekpop/utils"
)

var (
	// ErrInvalidTouch means the touch began outside the source region. The
	// gesture never starts.
	ErrInvalidTouch = touch.ErrInvalidTouch

	// ErrNoPreviewAvailable means the delegate declined to build a preview
	// for the location, or is gone. The gesture aborts silently.
	ErrNoPreviewAvailable = errors.New("no preview available")

	// ErrConcurrentGesture is returned for a touch that begins while
	// another gesture is active. The active gesture is not disturbed.
	ErrConcurrentGesture = errors.New("gesture already in progress")

	// ErrActionUnavailable is returned when the action button is tapped
	// while it is not shown.
	ErrActionUnavailable = errors.New("action button is not available")

	// ErrInvariantViolation marks an internal state bug.
	ErrInvariantViolation = errors.New("gesture state invariant violated")
)

// check panics on a violated invariant when strict, and logs otherwise so
// production builds carry on.
func (c *Controller) check(ok bool, format string, args ...interface{}) bool {
	if ok {
		return true
	}

	err := fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
	if c.cfg.StrictInvariants {
		panic(err)
	}
	utils.Warn("%v (state=%s)", err, c.state)
	return false
}
