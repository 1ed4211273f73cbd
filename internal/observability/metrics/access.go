package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/target/eventnav/internal/observability/errors"
	"github.com/target/eventnav/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Lookup outcomes reported by the access gate.
const (
	OutcomeGranted      = "granted"
	OutcomeDenied       = "denied"
	OutcomeSuperseded   = "superseded"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
	OutcomeSkipped      = "skipped"
	OutcomeCanceled     = "canceled"
)

// LookupMetric captures one attendance lookup performed by the access gate.
type LookupMetric struct {
	Outcome  string
	Duration time.Duration
	Err      error
}

// EmitLookup emits attendance lookup metrics.
func EmitLookup(sink statsd.Sink, in LookupMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"outcome": in.Outcome}
	if in.Err != nil && in.Outcome == OutcomeError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("gate.lookup", 1, tags)

	if in.Duration > 0 {
		sink.Timing("gate.lookup.duration", in.Duration, CloneTags(tags))
	}
}

// ActionMetric captures one privileged action invocation.
type ActionMetric struct {
	Action   string
	Result   string
	Status   int
	Duration time.Duration
	Err      error
}

// EmitAction emits privileged action metrics.
func EmitAction(sink statsd.Sink, in ActionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"action": in.Action,
		"result": in.Result,
	}
	if in.Status > 0 {
		tags["status"] = strconv.Itoa(in.Status)
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("action.invoke", 1, tags)

	if in.Duration > 0 {
		sink.Timing("action.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
