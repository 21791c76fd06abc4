package utils

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"nockminer/pkg/logging"
)

type ErrorSeverity int

const (
	SeverityLow ErrorSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// RecoverableError tags an error with the component it came from and whether
// the operation is worth retrying. Workers wrap attempt failures in these so
// the coordinator can tell transient faults from fatal ones.
type RecoverableError struct {
	Err       error
	Severity  ErrorSeverity
	Component string
	Timestamp time.Time
	Retryable bool
}

func NewRecoverableError(err error, severity ErrorSeverity, component string, retryable bool) *RecoverableError {
	return &RecoverableError{
		Err:       err,
		Severity:  severity,
		Component: component,
		Timestamp: time.Now(),
		Retryable: retryable,
	}
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Component, e.Severity, e.Err)
}

func (e *RecoverableError) Unwrap() error {
	return e.Err
}

// RecoverFromPanic converts a panic in the calling goroutine into a logged
// event instead of a crash. Use as a deferred call.
func RecoverFromPanic(component string) {
	if r := recover(); r != nil {
		logging.Named(component).Error("🚨 panic recovered",
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()),
		)
	}
}

// SafeGoroutine runs fn on a new goroutine with panic recovery.
func SafeGoroutine(component string, fn func()) {
	go func() {
		defer RecoverFromPanic(component)
		fn()
	}()
}

// CircuitBreaker trips open after maxFailures consecutive failures and lets
// a probe call through again once resetTimeout has passed. Half-open calls
// must succeed halfOpenMax times in a row before the breaker closes.
type CircuitBreaker struct {
	mu            sync.Mutex
	name          string
	maxFailures   int
	resetTimeout  time.Duration
	failures      int
	lastFailTime  time.Time
	state         string
	halfOpenMax   int
	halfOpenTries int
	log           *zap.Logger
}

func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        "closed",
		halfOpenMax:  3,
		log:          logging.Named("breaker"),
	}
}

func (cb *CircuitBreaker) Call(operation func() error) error {
	cb.mu.Lock()
	if cb.state == "open" {
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.log.Info("🔄 breaker OPEN -> HALF-OPEN", zap.String("name", cb.name))
			cb.state = "half-open"
			cb.halfOpenTries = 0
		} else {
			cb.mu.Unlock()
			return fmt.Errorf("circuit breaker %s is OPEN", cb.name)
		}
	}
	cb.mu.Unlock()

	err := operation()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailTime = time.Now()

		if cb.state == "half-open" {
			cb.log.Warn("⚠️ breaker HALF-OPEN -> OPEN", zap.String("name", cb.name), zap.Error(err))
			cb.state = "open"
			return fmt.Errorf("circuit breaker %s reopened: %w", cb.name, err)
		}

		if cb.failures >= cb.maxFailures {
			cb.log.Warn("🔴 breaker CLOSED -> OPEN",
				zap.String("name", cb.name),
				zap.Int("failures", cb.failures),
			)
			cb.state = "open"
		}

		return err
	}

	if cb.state == "half-open" {
		cb.halfOpenTries++
		if cb.halfOpenTries >= cb.halfOpenMax {
			cb.log.Info("✅ breaker HALF-OPEN -> CLOSED", zap.String("name", cb.name))
			cb.state = "closed"
			cb.failures = 0
		}
	} else if cb.state == "closed" {
		cb.failures = 0
	}

	return nil
}

func (cb *CircuitBreaker) GetState() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = "closed"
	cb.failures = 0
	cb.halfOpenTries = 0
}
