package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/target/eventnav/internal/domain/nav"
	apperrors "github.com/target/eventnav/internal/errors"
	"github.com/target/eventnav/internal/observability/metrics"
	"github.com/target/eventnav/internal/observability/statsd"
	"github.com/target/eventnav/internal/observable"
	"github.com/target/eventnav/internal/ports"
)

// ErrActionBusy is returned when an action is invoked while a previous invocation is still running.
var ErrActionBusy = apperrors.Conflict("action already in progress")

// ActionRunnerOptions groups dependencies for ActionRunner.
type ActionRunnerOptions struct {
	Caller  ports.ActionCaller  // Required: remote action endpoint
	Session ports.SessionSource // Required: signed out on 401
	Alerts  ports.Alerter       // Required: user-visible failure alerts
	Logger  *slog.Logger        // Optional: structured logger
	Metrics statsd.Sink         // Optional: metrics sink (StatsD-compatible)
	Now     func() time.Time    // Optional: clock override for tests
}

// ActionRunner executes privileged remote actions one at a time and exposes a
// two-phase state: busy while the call is in flight, completed after a 2xx
// until the next invocation resets it.
//
// State subscribers run synchronously while the runner lock is held and must
// not call back into the runner.
type ActionRunner struct {
	caller  ports.ActionCaller
	session ports.SessionSource
	alerts  ports.Alerter
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time

	mu    sync.Mutex
	busy  bool
	state *observable.Cell[nav.ActionState]
}

// NewActionRunner constructs a new ActionRunner in the idle state.
func NewActionRunner(opts ActionRunnerOptions) (*ActionRunner, error) {
	if opts.Caller == nil {
		return nil, errors.New("ActionCaller is required")
	}
	if opts.Session == nil {
		return nil, errors.New("SessionSource is required")
	}
	if opts.Alerts == nil {
		return nil, errors.New("Alerter is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &ActionRunner{
		caller:  opts.Caller,
		session: opts.Session,
		alerts:  opts.Alerts,
		logger:  logger.With("component", "action_runner"),
		metrics: opts.Metrics,
		now:     now,
		state:   observable.NewCell(nav.ActionState{}),
	}, nil
}

// State returns the current action state.
func (r *ActionRunner) State() nav.ActionState {
	return r.state.Get()
}

// Subscribe registers fn for every state change and returns a function that removes it.
func (r *ActionRunner) Subscribe(fn func(nav.ActionState)) func() {
	return r.state.Subscribe(fn)
}

// Invoke runs action with token as the bearer credential.
//
// A 2xx response completes the action. A 401 clears the state and signs the
// session out without alerting; Invoke then returns nil. Any other status alerts
// the user with the status code and returns an *errors.AppError carrying it.
// Transport failures alert and return an error wrapping the cause. Busy is
// cleared on every path.
func (r *ActionRunner) Invoke(ctx context.Context, token string, action nav.ActionDescriptor) error {
	if !action.Validate() {
		return apperrors.Validationf("invalid action %q", action.Name)
	}

	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return ErrActionBusy
	}
	r.busy = true
	r.state.Set(nav.ActionState{Busy: true})
	r.mu.Unlock()

	var once sync.Once
	finish := func(final nav.ActionState) {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.busy = false
			r.state.Set(final)
		})
	}
	defer finish(nav.ActionState{})

	start := r.now()
	result, err := r.caller.CallAction(ctx, ports.ActionRequest{Token: token, Action: action})
	elapsed := r.now().Sub(start)

	metric := metrics.ActionMetric{Action: action.Name, Status: result.Status, Duration: elapsed}
	label := action.DisplayName()

	switch {
	case err != nil:
		metric.Result, metric.Err = metrics.ResultError, err
		metrics.EmitAction(r.metrics, metric)
		r.logger.WarnContext(ctx, "action request failed", "action", action.Name, "error", err)
		r.alerts.Alert(ctx, fmt.Sprintf("%s failed: %v", label, err))
		return fmt.Errorf("%s: %w", action.Name, err)

	case result.Status >= 200 && result.Status < 300:
		finish(nav.ActionState{Completed: true})
		metric.Result = metrics.ResultSuccess
		metrics.EmitAction(r.metrics, metric)
		r.logger.InfoContext(ctx, "action completed", "action", action.Name, "status", result.Status)
		return nil

	case result.Status == http.StatusUnauthorized:
		finish(nav.ActionState{})
		metric.Result = metrics.ResultNoop
		metrics.EmitAction(r.metrics, metric)
		r.logger.InfoContext(ctx, "credential rejected, signing out", "action", action.Name)
		if signOutErr := r.session.SignOut(ctx); signOutErr != nil {
			r.logger.WarnContext(ctx, "sign out failed", "error", signOutErr)
		}
		return nil

	default:
		statusErr := apperrors.FromStatus(result.Status, result.Body)
		metric.Result, metric.Err = metrics.ResultError, statusErr
		metrics.EmitAction(r.metrics, metric)
		r.logger.WarnContext(ctx, "action rejected",
			"action", action.Name,
			"status", result.Status,
			"body", result.Body,
		)
		r.alerts.Alert(ctx, fmt.Sprintf("%s failed with status %d", label, result.Status))
		return statusErr
	}
}
