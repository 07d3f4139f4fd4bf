package status_test

import (
	"testing"

	"github.com/momentics/reactorcore/status"
)

func TestOkZeroValue(t *testing.T) {
	var s status.Status
	if !s.OK() {
		t.Fatal("zero Status must be OK")
	}
	if s.Code() != status.OK {
		t.Fatalf("zero Status code = %v, want OK", s.Code())
	}
}

func TestShuttingDownKinds(t *testing.T) {
	refused := status.ShuttingDown(false)
	if refused.OK() || refused.Code() != status.ServiceUnavailable {
		t.Fatalf("refused = %+v, want ServiceUnavailable", refused)
	}

	cancelled := status.ShuttingDown(true)
	if cancelled.OK() || cancelled.Code() != status.Aborted {
		t.Fatalf("cancelled = %+v, want Aborted", cancelled)
	}
}

func TestErrorString(t *testing.T) {
	s := status.New(status.NetworkError, "connection timed out after 61s")
	if s.Error() == "" {
		t.Fatal("expected non-empty error string")
	}
}
