// Package retry provides bounded exponential backoff for graph steps
// and tool calls.
//
// A Policy controls how often and how long a failed operation is
// re-attempted. Backoff between attempts grows by BackoffFactor, is
// capped at MaxDelay, and has an additive jitter: jitter only ever
// lengthens a delay, so the configured delay is a floor.
//
// By default an operation is not retried when its error is marked
// non-repeatable (see tool.Repeatable) or when the context is done.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/agentgraph/agentgraph/pkg/agentgraph"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/config"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/tool"
)

// Policy configures retry behavior.
type Policy struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Must be at least 1.
	MaxAttempts int

	// InitialDelay is the delay before the first re-attempt.
	InitialDelay time.Duration

	// BackoffFactor is the multiplier applied to the delay after each
	// failed attempt. Must be greater than 1.
	BackoffFactor float64

	// MaxDelay caps the delay between attempts. Zero means no cap.
	MaxDelay time.Duration

	// Jitter is the maximum random duration added to each delay.
	// Jitter never shortens a delay.
	Jitter time.Duration

	// RetryIf optionally overrides the default retryability check.
	RetryIf func(error) bool
}

// DefaultPolicy returns the standard retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
		Jitter:        100 * time.Millisecond,
	}
}

// NoRetry returns a policy that allows a single attempt.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1, BackoffFactor: 2.0}
}

// Validate reports whether the policy's fields are usable.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: MaxAttempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.MaxAttempts > 1 && p.BackoffFactor <= 1 {
		return fmt.Errorf("retry: BackoffFactor must be greater than 1, got %g", p.BackoffFactor)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("retry: InitialDelay must not be negative, got %v", p.InitialDelay)
	}
	if p.Jitter < 0 {
		return fmt.Errorf("retry: Jitter must not be negative, got %v", p.Jitter)
	}
	return nil
}

// ExhaustedError reports that all attempts failed.
type ExhaustedError struct {
	// Attempts is the number of attempts made.
	Attempts int

	// Err is the error from the final attempt.
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// retryable is the default retryability check: retry everything except
// errors explicitly marked non-repeatable and context errors.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return tool.Repeatable(err)
}

// Do executes fn with retries according to the policy.
//
// On success it returns fn's value. If an attempt fails with a
// non-retryable error, that error is returned as-is. If all attempts
// fail, the final error is wrapped in an ExhaustedError.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.Validate(); err != nil {
		return zero, err
	}

	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = retryable
	}

	delay := p.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryIf(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			break
		}

		sleep := delay
		if p.Jitter > 0 {
			sleep += rand.N(p.Jitter)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(sleep):
		}

		delay = time.Duration(float64(delay) * p.BackoffFactor)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return zero, &ExhaustedError{Attempts: p.MaxAttempts, Err: lastErr}
}

// Wrap returns a step that executes fn with retries according to the
// policy. The wrapped step re-executes fn from scratch on each attempt;
// state merging still happens once, after the wrapped step succeeds.
func Wrap(fn agentgraph.StepFunc, p Policy) agentgraph.StepFunc {
	return func(ctx agentgraph.Context, state agentgraph.State) (agentgraph.Update, error) {
		return Do(ctx, p, func(context.Context) (agentgraph.Update, error) {
			return fn(ctx, state)
		})
	}
}

// Invoke calls a registered tool with retries according to the policy.
// Tools reporting non-repeatable failures are not re-invoked.
func Invoke(ctx context.Context, reg *tool.Registry, p Policy, name string, params map[string]any) (string, error) {
	return Do(ctx, p, func(ctx context.Context) (string, error) {
		return reg.Invoke(ctx, name, params)
	})
}

// FromConfig builds a policy from configuration, falling back to
// DefaultPolicy values for absent keys.
//
// Recognized keys: max_attempts, initial_delay, backoff_factor,
// max_delay, jitter.
func FromConfig(cfg config.Config) (Policy, error) {
	def := DefaultPolicy()
	p := Policy{
		MaxAttempts:   cfg.Int("max_attempts", def.MaxAttempts),
		InitialDelay:  cfg.Duration("initial_delay", def.InitialDelay),
		BackoffFactor: cfg.Float("backoff_factor", def.BackoffFactor),
		MaxDelay:      cfg.Duration("max_delay", def.MaxDelay),
		Jitter:        cfg.Duration("jitter", def.Jitter),
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
