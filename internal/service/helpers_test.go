package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/target/eventnav/internal/testutil"
)

const waitTimeout = 2 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitDone(t *testing.T, ev *Evaluation) {
	t.Helper()
	testutil.WaitClosed(t, ev.Done(), waitTimeout)
}
