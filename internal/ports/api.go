package ports

import (
	"context"

	"github.com/target/eventnav/internal/domain/nav"
	"github.com/target/eventnav/internal/domain/rsvp"
)

// LookupInput identifies an authorization lookup.
type LookupInput struct {
	EventID string
	Email   string
	Token   string
}

// AttendanceLookup fetches the recorded response of an identity to an event.
// Implementations return an error with code unauthorized on 401.
type AttendanceLookup interface {
	LookupResponse(ctx context.Context, in LookupInput) (rsvp.Response, error)
}

// ActionRequest is one privileged action call.
type ActionRequest struct {
	Token  string
	Action nav.ActionDescriptor
}

// ActionResult carries the raw outcome of an action call that reached the remote.
type ActionResult struct {
	Status int
	Body   string
}

// ActionCaller posts privileged actions. A non-nil error means no response was received.
type ActionCaller interface {
	CallAction(ctx context.Context, req ActionRequest) (ActionResult, error)
}

// Alerter raises a user-visible alert.
type Alerter interface {
	Alert(ctx context.Context, message string)
}
