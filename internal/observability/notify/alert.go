package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is the payload delivered to every sink when a user-facing failure occurs.
type Alert struct {
	Message    string
	Source     string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming alerts.
type Sink interface {
	SendAlert(ctx context.Context, alert Alert) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, alert Alert) error

// SendAlert implements the Sink interface.
func (f SinkFunc) SendAlert(ctx context.Context, alert Alert) error {
	if f == nil {
		return nil
	}
	return f(ctx, alert)
}

// WriterSink prints alerts as single lines to an io.Writer, typically stderr.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink that writes to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// SendAlert writes "! <message>" followed by a newline.
func (s *WriterSink) SendAlert(_ context.Context, alert Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "! %s\n", strings.TrimSpace(alert.Message)); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	return nil
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Source   string
	Severity string
	Sinks    []Sink
	Logger   *slog.Logger
	Now      func() time.Time
}

// Dispatcher fans a message out to every configured sink. Sink failures are
// logged and never surfaced to the caller.
type Dispatcher struct {
	source   string
	severity string
	sinks    []Sink
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher builds a Dispatcher, dropping nil sinks.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	sinks := make([]Sink, 0, len(opts.Sinks))
	for _, s := range opts.Sinks {
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	severity := opts.Severity
	if severity == "" {
		severity = SeverityWarning
	}
	return &Dispatcher{
		source:   strings.TrimSpace(opts.Source),
		severity: severity,
		sinks:    sinks,
		logger:   logger.With("component", "alerts"),
		now:      now,
	}
}

// Alert delivers message to every sink in order.
func (d *Dispatcher) Alert(ctx context.Context, message string) {
	if d == nil {
		return
	}
	alert := Alert{
		Message:    message,
		Source:     d.source,
		Severity:   d.severity,
		OccurredAt: d.now(),
	}
	for _, sink := range d.sinks {
		if err := sink.SendAlert(ctx, alert); err != nil {
			d.logger.WarnContext(ctx, "alert delivery failed",
				"sink", fmt.Sprintf("%T", sink),
				"error", err,
			)
		}
	}
}
