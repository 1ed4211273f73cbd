package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/eventnav/internal/domain/auth"
	"github.com/target/eventnav/internal/domain/nav"
	apperrors "github.com/target/eventnav/internal/errors"
	"github.com/target/eventnav/internal/observability/metrics"
	"github.com/target/eventnav/internal/observability/statsd"
	"github.com/target/eventnav/internal/observable"
	"github.com/target/eventnav/internal/ports"
)

// AccessGateOptions groups dependencies for AccessGate.
type AccessGateOptions struct {
	Lookup  ports.AttendanceLookup // Required: remote attendance lookup
	Session ports.SessionSource    // Required: signed out on 401
	Logger  *slog.Logger           // Optional: structured logger
	Metrics statsd.Sink            // Optional: metrics sink (StatsD-compatible)
	Now     func() time.Time       // Optional: clock override for tests
}

// EvaluateInput is everything a gate decision depends on. Refresh is an opaque
// counter; bumping it forces a new lookup for otherwise identical inputs.
type EvaluateInput struct {
	EventID  string
	Identity domainauth.Credentials
	Refresh  uint64
}

func (in EvaluateInput) lookupInput() ports.LookupInput {
	return ports.LookupInput{EventID: in.EventID, Email: in.Identity.Email, Token: in.Identity.Token}
}

// Evaluation is the handle of one Evaluate call.
type Evaluation struct {
	generation uint64
	done       chan struct{}
}

func newEvaluation(generation uint64) *Evaluation {
	return &Evaluation{generation: generation, done: make(chan struct{})}
}

func settledEvaluation(generation uint64) *Evaluation {
	ev := newEvaluation(generation)
	close(ev.done)
	return ev
}

// Done is closed once the evaluation has settled, whether its result was applied or dropped.
func (e *Evaluation) Done() <-chan struct{} { return e.done }

// Generation returns the gate generation this evaluation was issued under.
func (e *Evaluation) Generation() uint64 { return e.generation }

// AccessGate decides whether restricted sub-links of the current event are
// enabled for the current identity. The newest evaluation always wins: each
// call cancels the previous lookup, and a settled lookup is applied only if no
// newer evaluation was issued in the meantime.
//
// Decision subscribers run synchronously while the gate lock is held and must
// not call back into the gate.
type AccessGate struct {
	lookup  ports.AttendanceLookup
	session ports.SessionSource
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time

	mu         sync.Mutex
	generation uint64
	last       EvaluateInput
	hasLast    bool
	current    *Evaluation
	cancel     context.CancelFunc
	closed     bool

	decision *observable.Cell[nav.Decision]
}

// NewAccessGate constructs a new AccessGate with a denied initial decision.
func NewAccessGate(opts AccessGateOptions) (*AccessGate, error) {
	if opts.Lookup == nil {
		return nil, errors.New("AttendanceLookup is required")
	}
	if opts.Session == nil {
		return nil, errors.New("SessionSource is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &AccessGate{
		lookup:   opts.Lookup,
		session:  opts.Session,
		logger:   logger.With("component", "access_gate"),
		metrics:  opts.Metrics,
		now:      now,
		decision: observable.NewCell(nav.Denied),
	}, nil
}

// Decision returns the most recently published decision.
func (g *AccessGate) Decision() nav.Decision {
	return g.decision.Get()
}

// Subscribe registers fn for every published decision and returns a function that removes it.
func (g *AccessGate) Subscribe(fn func(nav.Decision)) func() {
	return g.decision.Subscribe(fn)
}

// Evaluate starts resolving the decision for in. Identical consecutive inputs
// return the previous evaluation without a new lookup. Without an event id or
// complete credentials the gate publishes a denied decision synchronously and
// issues no remote call; otherwise it publishes a pending decision and resolves
// it in the background under a context derived from ctx.
func (g *AccessGate) Evaluate(ctx context.Context, in EvaluateInput) *Evaluation {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return settledEvaluation(g.generation)
	}
	if g.hasLast && g.last == in && g.current != nil {
		return g.current
	}

	g.generation++
	g.cancelPendingLocked()
	g.last, g.hasLast = in, true

	if in.EventID == "" || !in.Identity.Complete() {
		g.current = settledEvaluation(g.generation)
		g.decision.Set(nav.Denied)
		metrics.EmitLookup(g.metrics, metrics.LookupMetric{Outcome: metrics.OutcomeSkipped})
		return g.current
	}

	ev := newEvaluation(g.generation)
	g.current = ev
	g.decision.Set(nav.Pending)

	lookupCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	go g.resolve(lookupCtx, cancel, ev, in)

	return ev
}

// Close cancels any pending lookup. Later evaluations are ignored.
func (g *AccessGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.generation++
	g.cancelPendingLocked()
}

func (g *AccessGate) cancelPendingLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

func (g *AccessGate) resolve(ctx context.Context, cancel context.CancelFunc, ev *Evaluation, in EvaluateInput) {
	defer close(ev.done)
	defer cancel()

	start := g.now()
	response, err := g.lookup.LookupResponse(ctx, in.lookupInput())
	elapsed := g.now().Sub(start)

	g.mu.Lock()
	if ev.generation != g.generation {
		g.mu.Unlock()
		g.logger.DebugContext(ctx, "dropped superseded lookup",
			"event_id", in.EventID,
			"generation", ev.generation,
		)
		metrics.EmitLookup(g.metrics, metrics.LookupMetric{Outcome: metrics.OutcomeSuperseded, Duration: elapsed})
		return
	}
	g.cancel = nil

	switch {
	case err == nil:
		decision := nav.Decision{Attending: response.Affirmative()}
		g.decision.Set(decision)
		g.mu.Unlock()

		outcome := metrics.OutcomeDenied
		if decision.Attending {
			outcome = metrics.OutcomeGranted
		}
		g.logger.DebugContext(ctx, "lookup resolved",
			"event_id", in.EventID,
			"response", string(response),
			"attending", decision.Attending,
		)
		metrics.EmitLookup(g.metrics, metrics.LookupMetric{Outcome: outcome, Duration: elapsed})

	case apperrors.IsUnauthorized(err):
		g.hasLast = false
		g.mu.Unlock()
		metrics.EmitLookup(g.metrics, metrics.LookupMetric{Outcome: metrics.OutcomeUnauthorized, Duration: elapsed})
		g.signOutRejected(ctx, ev, in)

	case apperrors.IsCanceled(err):
		// Only the caller can cancel a current lookup; settle it so the
		// decision does not stay pending, and let the same input run again.
		g.hasLast = false
		g.decision.Set(nav.Denied)
		g.mu.Unlock()
		g.logger.DebugContext(ctx, "lookup canceled by caller, denying", "event_id", in.EventID)
		metrics.EmitLookup(g.metrics, metrics.LookupMetric{Outcome: metrics.OutcomeCanceled, Duration: elapsed})

	default:
		g.decision.Set(nav.Denied)
		g.mu.Unlock()
		g.logger.DebugContext(ctx, "lookup failed, denying",
			"event_id", in.EventID,
			"status", apperrors.StatusOf(err),
			"error", err,
		)
		metrics.EmitLookup(g.metrics, metrics.LookupMetric{Outcome: metrics.OutcomeError, Duration: elapsed, Err: err})
	}
}

// signOutRejected ends the session whose credential the API rejected, unless a
// newer evaluation took over or the session already changed since the lookup
// started.
func (g *AccessGate) signOutRejected(ctx context.Context, ev *Evaluation, in EvaluateInput) {
	g.mu.Lock()
	current := ev.generation == g.generation
	g.mu.Unlock()
	if !current || g.session.CurrentIdentity() != in.Identity {
		g.logger.DebugContext(ctx, "skipped sign out for stale credential", "event_id", in.EventID)
		return
	}

	g.logger.InfoContext(ctx, "credential rejected, signing out", "event_id", in.EventID)
	// The sign-out typically re-evaluates this gate, which cancels ctx.
	if err := g.session.SignOut(context.WithoutCancel(ctx)); err != nil {
		g.logger.WarnContext(ctx, "sign out failed", "error", err)
	}
}
