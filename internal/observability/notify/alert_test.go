package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherFansOut(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var got []Alert
	record := SinkFunc(func(_ context.Context, a Alert) error {
		got = append(got, a)
		return nil
	})
	failing := SinkFunc(func(context.Context, Alert) error {
		return errors.New("webhook down")
	})

	var logs bytes.Buffer
	d := NewDispatcher(DispatcherOptions{
		Source: "eventnav",
		Sinks:  []Sink{failing, nil, record},
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
		Now:    func() time.Time { return fixed },
	})

	d.Alert(context.Background(), "Refresh failed with status 500")

	require.Len(t, got, 1)
	assert.Equal(t, Alert{
		Message:    "Refresh failed with status 500",
		Source:     "eventnav",
		Severity:   SeverityWarning,
		OccurredAt: fixed,
	}, got[0])
	assert.Contains(t, logs.String(), "alert delivery failed")
	assert.Contains(t, logs.String(), "webhook down")
}

func TestDispatcherNil(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Alert(context.Background(), "ignored") })
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	require.NoError(t, sink.SendAlert(context.Background(), Alert{Message: "  offline  "}))
	assert.Equal(t, "! offline\n", buf.String())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriterSinkError(t *testing.T) {
	err := NewWriterSink(brokenWriter{}).SendAlert(context.Background(), Alert{Message: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestSinkFuncNil(t *testing.T) {
	var f SinkFunc
	assert.NoError(t, f.SendAlert(context.Background(), Alert{}))
}
