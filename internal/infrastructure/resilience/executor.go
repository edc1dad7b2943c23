package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// RetryHook is told about every retry and every breaker state change.
type RetryHook interface {
	OnRetry(operation string)
	OnBreakerState(operation, state string)
}

// Executor runs upstream calls (Ollama, Qdrant, NATS) under per-operation
// retry and circuit breaker policies. Each operation name gets its own breaker.
type Executor struct {
	policies policySet
	hook     RetryHook

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(base Policy) *Executor {
	return &Executor{
		policies: policySet{base: base.withDefaults(), prefixes: map[string]Policy{}},
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// WithHook attaches h and returns e.
func (e *Executor) WithHook(h RetryHook) *Executor {
	e.hook = h
	return e
}

// WithPolicy applies p to operations named prefix or prefix followed by "." or "_".
// It must be called before the executor is shared.
func (e *Executor) WithPolicy(prefix string, p Policy) *Executor {
	e.policies.prefixes[prefix] = p.withDefaults()
	return e
}

func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = recordAll
	}

	policy := e.policies.resolve(op)
	call := func() error { return e.retry(ctx, op, policy, fn, classifier) }
	if !policy.Breaker.Enabled {
		return call()
	}

	_, err := e.breaker(op, policy.Breaker, classifier).Execute(func() (struct{}, error) {
		return struct{}{}, call()
	})
	return err
}

func (e *Executor) retry(
	ctx context.Context,
	op string,
	policy Policy,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == policy.MaxAttempts || !classifier(err).Retryable {
			return err
		}

		wait := policy.backoff(attempt)
		slog.Warn("upstream_retry",
			"operation", op,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)
		if e.hook != nil {
			e.hook.OnRetry(op)
		}
		if !sleep(ctx, wait) {
			return err
		}
	}
	return err
}

func (e *Executor) breaker(op string, bp BreakerPolicy, classifier ErrorClassifier) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[op]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        op,
		MaxRequests: bp.HalfOpenMaxCalls,
		Timeout:     bp.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bp.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bp.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("upstream_breaker_state", "operation", name, "from", from.String(), "to", to.String())
			if e.hook != nil {
				e.hook.OnBreakerState(name, to.String())
			}
		},
	})
	e.breakers[op] = cb
	return cb
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func recordAll(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}
