package service

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/eventnav/internal/domain/nav"
	apperrors "github.com/target/eventnav/internal/errors"
	"github.com/target/eventnav/internal/mocks"
	authmocks "github.com/target/eventnav/internal/mocks/auth"
	"github.com/target/eventnav/internal/observable"
	"github.com/target/eventnav/internal/ports"
)

type actionFixture struct {
	runner  *ActionRunner
	caller  *mocks.MockActionCaller
	alerts  *mocks.MockAlerter
	session *authmocks.FakeSessionSource
	states  *observable.Recorder[nav.ActionState]
}

func newActionFixture(t *testing.T) *actionFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &actionFixture{
		caller:  mocks.NewMockActionCaller(ctrl),
		alerts:  mocks.NewMockAlerter(ctrl),
		session: authmocks.NewFakeSessionSource("admin@example.com", "tok-admin"),
		states:  &observable.Recorder[nav.ActionState]{},
	}
	runner, err := NewActionRunner(ActionRunnerOptions{
		Caller:  f.caller,
		Session: f.session,
		Alerts:  f.alerts,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	runner.Subscribe(f.states.Record)
	f.runner = runner
	return f
}

func refreshRequest(token string) ports.ActionRequest {
	return ports.ActionRequest{Token: token, Action: nav.RefreshAction}
}

func TestNewActionRunner_RequiresDependencies(t *testing.T) {
	_, err := NewActionRunner(ActionRunnerOptions{})
	require.Error(t, err)
}

func TestActionRunner_Success(t *testing.T) {
	for _, status := range []int{200, 202, 204} {
		f := newActionFixture(t)
		f.caller.EXPECT().
			CallAction(gomock.Any(), refreshRequest("tok-admin")).
			Return(ports.ActionResult{Status: status}, nil)

		err := f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction)

		require.NoError(t, err)
		assert.Equal(t, []nav.ActionState{{Busy: true}, {Completed: true}}, f.states.Values())
		assert.Equal(t, nav.ActionState{Completed: true}, f.runner.State())
	}
}

func TestActionRunner_BusyPublishedBeforeCall(t *testing.T) {
	f := newActionFixture(t)
	f.caller.EXPECT().
		CallAction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, ports.ActionRequest) (ports.ActionResult, error) {
			assert.Equal(t, nav.ActionState{Busy: true}, f.runner.State())
			return ports.ActionResult{Status: 200}, nil
		})

	require.NoError(t, f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction))
}

func TestActionRunner_UnauthorizedSignsOutWithoutAlert(t *testing.T) {
	f := newActionFixture(t)
	f.caller.EXPECT().
		CallAction(gomock.Any(), gomock.Any()).
		Return(ports.ActionResult{Status: 401, Body: "expired"}, nil)
	f.alerts.EXPECT().Alert(gomock.Any(), gomock.Any()).Times(0)

	err := f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction)

	require.NoError(t, err)
	assert.Equal(t, 1, f.session.SignOuts())
	assert.Equal(t, []nav.ActionState{{Busy: true}, {}}, f.states.Values())
}

func TestActionRunner_StateClearedBeforeSignOut(t *testing.T) {
	f := newActionFixture(t)
	f.caller.EXPECT().CallAction(gomock.Any(), gomock.Any()).Return(ports.ActionResult{Status: 401}, nil)

	var atSignOut nav.ActionState
	f.session.OnSignOut = func() { atSignOut = f.runner.State() }

	require.NoError(t, f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction))
	assert.True(t, atSignOut.Idle())
}

func TestActionRunner_StatusErrorAlertsWithCode(t *testing.T) {
	f := newActionFixture(t)
	f.caller.EXPECT().
		CallAction(gomock.Any(), gomock.Any()).
		Return(ports.ActionResult{Status: 500, Body: "database offline"}, nil)

	var alerted string
	f.alerts.EXPECT().Alert(gomock.Any(), gomock.Any()).Do(func(_ context.Context, msg string) {
		alerted = msg
	})

	err := f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.Status)
	assert.Equal(t, "database offline", appErr.Body)
	assert.Contains(t, alerted, "500")
	assert.Zero(t, f.session.SignOuts())
	assert.Equal(t, []nav.ActionState{{Busy: true}, {}}, f.states.Values())
}

func TestActionRunner_TransportErrorWrapsCause(t *testing.T) {
	f := newActionFixture(t)
	cause := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	f.caller.EXPECT().
		CallAction(gomock.Any(), gomock.Any()).
		Return(ports.ActionResult{}, apperrors.Transport(cause))
	f.alerts.EXPECT().Alert(gomock.Any(), gomock.Any()).Times(1)

	err := f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	var opErr *net.OpError
	assert.ErrorAs(t, err, &opErr)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, nav.ActionState{}, f.runner.State())
}

func TestActionRunner_RejectsWhileBusy(t *testing.T) {
	f := newActionFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})

	f.caller.EXPECT().
		CallAction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, ports.ActionRequest) (ports.ActionResult, error) {
			close(entered)
			<-release
			return ports.ActionResult{Status: 200}, nil
		}).
		Times(1)

	firstErr := make(chan error, 1)
	go func() { firstErr <- f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction) }()
	<-entered

	err := f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction)
	require.ErrorIs(t, err, ErrActionBusy)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, nav.ActionState{Busy: true}, f.runner.State())

	close(release)
	require.NoError(t, <-firstErr)
	assert.Equal(t, []nav.ActionState{{Busy: true}, {Completed: true}}, f.states.Values())
}

func TestActionRunner_NextInvocationResetsCompleted(t *testing.T) {
	f := newActionFixture(t)
	gomock.InOrder(
		f.caller.EXPECT().CallAction(gomock.Any(), gomock.Any()).Return(ports.ActionResult{Status: 200}, nil),
		f.caller.EXPECT().CallAction(gomock.Any(), gomock.Any()).Return(ports.ActionResult{Status: 503}, nil),
	)
	f.alerts.EXPECT().Alert(gomock.Any(), gomock.Any())

	require.NoError(t, f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction))
	require.Error(t, f.runner.Invoke(context.Background(), "tok-admin", nav.RefreshAction))

	assert.Equal(t, []nav.ActionState{
		{Busy: true}, {Completed: true},
		{Busy: true}, {},
	}, f.states.Values())
}

func TestActionRunner_InvalidDescriptor(t *testing.T) {
	f := newActionFixture(t)

	err := f.runner.Invoke(context.Background(), "tok-admin", nav.ActionDescriptor{Name: "broken", Path: "relative"})

	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, f.states.Values())
}
