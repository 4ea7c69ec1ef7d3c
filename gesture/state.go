package gesture

// State is the controller's lifecycle position.
type State string

const (
	StateIdle         State = "idle"
	StatePending      State = "pending"
	StateConfirmed    State = "confirmed"
	StatePreviewing   State = "previewing"
	StateAnchored     State = "anchored"
	StateAnchoredLock State = "anchored-lock"
	StateCommitting   State = "committing"
	StateCancelled    State = "cancelled"
)

func (s State) String() string {
	return string(s)
}

// previewActive is true while a preview is on screen and following the touch.
func (s State) previewActive() bool {
	switch s {
	case StateConfirmed, StatePreviewing, StateAnchored, StateAnchoredLock:
		return true
	}
	return false
}

// Outcome records how the last gesture finished.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeCommitted Outcome = "committed"
	OutcomeAction    Outcome = "action"
	OutcomeReset     Outcome = "reset"
)
