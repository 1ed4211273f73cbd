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
)

// NavigatorOptions groups dependencies for Navigator.
type NavigatorOptions struct {
	Gate     *AccessGate     // Required
	Actions  *ActionRunner   // Required
	Sessions *SessionManager // Required
	Menu     []nav.MenuItem  // Optional: defaults to nav.DefaultMenu
	Logger   *slog.Logger    // Optional: structured logger
	Now      func() time.Time
}

// Navigator owns the current location and refresh counter. It re-evaluates the
// access gate whenever the location, the session or the refresh counter
// changes, and projects gate and action state into menu item views.
type Navigator struct {
	gate     *AccessGate
	actions  *ActionRunner
	sessions *SessionManager
	menu     []nav.MenuItem
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// evalMu orders snapshot and Evaluate so the latest navigation reaches the gate last.
	evalMu sync.Mutex

	mu       sync.Mutex
	location string
	eventID  string
	refresh  uint64

	unsubscribe []func()
}

// NewNavigator wires a Navigator to its collaborators. ctx bounds lookups
// triggered by session changes; Close releases the subscriptions.
func NewNavigator(ctx context.Context, opts NavigatorOptions) (*Navigator, error) {
	if opts.Gate == nil {
		return nil, errors.New("AccessGate is required")
	}
	if opts.Actions == nil {
		return nil, errors.New("ActionRunner is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("SessionManager is required")
	}

	menu := opts.Menu
	if len(menu) == 0 {
		menu = nav.DefaultMenu()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	navCtx, cancel := context.WithCancel(ctx)
	n := &Navigator{
		gate:     opts.Gate,
		actions:  opts.Actions,
		sessions: opts.Sessions,
		menu:     menu,
		logger:   logger.With("component", "navigator"),
		now:      now,
		ctx:      navCtx,
		cancel:   cancel,
	}
	n.unsubscribe = append(n.unsubscribe, opts.Sessions.Subscribe(func(domainauth.Session) {
		n.evaluate(n.ctx)
	}))
	return n, nil
}

// Navigate moves to location and re-evaluates the gate.
func (n *Navigator) Navigate(ctx context.Context, location string) *Evaluation {
	eventID, _ := nav.EventIDFromPath(location)

	n.mu.Lock()
	n.location = location
	n.eventID = eventID
	n.mu.Unlock()

	n.logger.DebugContext(ctx, "navigated", "location", location, "event_id", eventID)
	return n.evaluate(ctx)
}

// Refresh bumps the refresh counter, forcing a new lookup for the current location.
func (n *Navigator) Refresh(ctx context.Context) *Evaluation {
	n.mu.Lock()
	n.refresh++
	n.mu.Unlock()
	return n.evaluate(ctx)
}

// Location returns the current location and the event id it refers to, if any.
func (n *Navigator) Location() (location, eventID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location, n.eventID
}

// Decision returns the current gate decision.
func (n *Navigator) Decision() nav.Decision {
	return n.gate.Decision()
}

// Items returns the menu projected onto the current location, session, gate decision and action state.
func (n *Navigator) Items() []nav.ItemView {
	_, eventID := n.Location()
	session := n.sessions.Current()
	return nav.BuildView(n.menu, nav.ViewInput{
		EventID:  eventID,
		SignedIn: session.SignedIn(n.now()),
		IsAdmin:  session.IsAdmin(),
		Decision: n.gate.Decision(),
		Action:   n.actions.State(),
	})
}

// RunAction invokes the admin menu action named name with the current session's token.
func (n *Navigator) RunAction(ctx context.Context, name string) error {
	var (
		action nav.ActionDescriptor
		found  bool
	)
	for _, item := range n.menu {
		if item.Kind == nav.ItemAdminAction && item.Action.Name == name {
			action, found = item.Action, true
			break
		}
	}
	if !found {
		return apperrors.NotFound("unknown action " + name)
	}

	session := n.sessions.Current()
	if !session.SignedIn(n.now()) {
		return apperrors.Validation("sign in to run " + action.DisplayName())
	}
	if !session.IsAdmin() {
		return apperrors.Forbidden(action.DisplayName() + " requires an admin session")
	}

	return n.actions.Invoke(ctx, session.Token, action)
}

// OnChange registers fn to run after any gate decision, action state or session
// change. fn runs synchronously and must not navigate or refresh.
func (n *Navigator) OnChange(fn func()) func() {
	unsubs := []func(){
		n.gate.Subscribe(func(nav.Decision) { fn() }),
		n.actions.Subscribe(func(nav.ActionState) { fn() }),
		n.sessions.Subscribe(func(domainauth.Session) { fn() }),
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			for _, u := range unsubs {
				u()
			}
		})
	}
}

// Close releases session subscriptions and cancels lookups started by session changes.
func (n *Navigator) Close() {
	n.mu.Lock()
	unsubs := n.unsubscribe
	n.unsubscribe = nil
	n.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	n.cancel()
}

func (n *Navigator) evaluate(ctx context.Context) *Evaluation {
	n.evalMu.Lock()
	defer n.evalMu.Unlock()

	n.mu.Lock()
	in := EvaluateInput{
		EventID:  n.eventID,
		Identity: n.sessions.CurrentIdentity(),
		Refresh:  n.refresh,
	}
	n.mu.Unlock()
	return n.gate.Evaluate(ctx, in)
}
