package nav

// Decision is the gating outcome for the restricted areas of one event.
type Decision struct {
	Loading   bool
	Attending bool
}

// Denied is the settled, no-access decision.
var Denied = Decision{}

// Pending is the decision published while a lookup is in flight.
var Pending = Decision{Loading: true}

// Granted is the settled decision for an affirmative response.
var Granted = Decision{Attending: true}

// ActionState tracks a privileged action across invocations.
// Completed persists until the next invocation resets it.
type ActionState struct {
	Busy      bool
	Completed bool
}

// Idle reports whether the action is neither running nor completed.
func (s ActionState) Idle() bool { return !s.Busy && !s.Completed }
