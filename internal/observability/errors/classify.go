// Package errors maps errors onto the small, fixed set of class names used as
// metric tags, so tag cardinality stays bounded.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	apperrors "github.com/target/eventnav/internal/errors"
)

const (
	ClassTimeout = "timeout"
	ClassNetwork = "network"
	ClassUnknown = "unknown"
)

// Classify returns the tag value for err. Application errors classify by
// code, deadlines and network failures by kind, anything else by the
// innermost concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	if goerrors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}
	return typeName(innermost(err))
}

func innermost(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return ClassUnknown
	}
	return strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
}
