package utils

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Hour)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return boom }); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}
	if got := cb.GetState(); got != "open" {
		t.Fatalf("state after 3 failures = %q, want open", got)
	}

	// Open breaker rejects without running the operation.
	ran := false
	if err := cb.Call(func() error { ran = true; return nil }); err == nil {
		t.Fatal("open breaker accepted a call")
	}
	if ran {
		t.Fatal("open breaker ran the operation")
	}
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Hour)
	boom := errors.New("boom")

	cb.Call(func() error { return boom })
	cb.Call(func() error { return boom })
	cb.Call(func() error { return nil })
	cb.Call(func() error { return boom })
	cb.Call(func() error { return boom })

	if got := cb.GetState(); got != "closed" {
		t.Fatalf("state = %q, want closed (failures are not consecutive)", got)
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Millisecond)

	cb.Call(func() error { return errors.New("boom") })
	if got := cb.GetState(); got != "open" {
		t.Fatalf("state = %q, want open", got)
	}

	time.Sleep(5 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("probe call %d failed: %v", i, err)
		}
	}
	if got := cb.GetState(); got != "closed" {
		t.Fatalf("state after recovery = %q, want closed", got)
	}
}

func TestRecoverableErrorUnwraps(t *testing.T) {
	inner := errors.New("inner")
	err := NewRecoverableError(inner, SeverityHigh, "worker", true)

	if !errors.Is(err, inner) {
		t.Fatal("RecoverableError does not unwrap to the inner error")
	}
	if err.Severity.String() != "HIGH" {
		t.Fatalf("severity = %q, want HIGH", err.Severity.String())
	}
}
