package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentgraph/agentgraph/pkg/agentgraph"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/config"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPolicy keeps test runtimes low.
func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// TestDo_SucceedsFirstAttempt tests the no-retry happy path.
func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

// TestDo_RetriesUntilSuccess tests recovery after transient failures.
func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

// TestDo_Exhausted tests the terminal error after all attempts fail.
func TestDo_Exhausted(t *testing.T) {
	final := errors.New("still broken")
	calls := 0

	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "", final
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, final)
}

// TestDo_BackoffGrowsExponentially tests delay spacing between
// attempts. With a 20ms initial delay and factor 2, the three attempts
// start near offsets 0, 20ms, and 60ms.
func TestDo_BackoffGrowsExponentially(t *testing.T) {
	unit := 20 * time.Millisecond
	p := Policy{
		MaxAttempts:   3,
		InitialDelay:  unit,
		BackoffFactor: 2.0,
	}

	start := time.Now()
	var offsets []time.Duration
	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		offsets = append(offsets, time.Since(start))
		return "", errors.New("transient")
	})
	require.Error(t, err)
	require.Len(t, offsets, 3)

	assert.Less(t, offsets[0], unit/2)
	assert.GreaterOrEqual(t, offsets[1], unit)
	assert.GreaterOrEqual(t, offsets[2], 3*unit)
}

// TestDo_JitterOnlyLengthensDelay tests that jitter never fires early.
func TestDo_JitterOnlyLengthensDelay(t *testing.T) {
	unit := 10 * time.Millisecond
	p := Policy{
		MaxAttempts:   2,
		InitialDelay:  unit,
		BackoffFactor: 2.0,
		Jitter:        5 * time.Millisecond,
	}

	start := time.Now()
	var second time.Duration
	attempt := 0
	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		attempt++
		if attempt == 2 {
			second = time.Since(start)
		}
		return "", errors.New("transient")
	})
	require.Error(t, err)

	assert.GreaterOrEqual(t, second, unit)
}

// TestDo_MaxDelayCaps tests the delay ceiling.
func TestDo_MaxDelayCaps(t *testing.T) {
	p := Policy{
		MaxAttempts:   4,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 100.0,
		MaxDelay:      2 * time.Millisecond,
	}

	start := time.Now()
	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		return "", errors.New("transient")
	})
	require.Error(t, err)

	// 1ms + 2ms + 2ms of sleep, far under the uncapped 1ms + 100ms + 10s
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

// TestDo_NonRepeatableNotRetried tests the idempotency guard.
func TestDo_NonRepeatableNotRetried(t *testing.T) {
	calls := 0
	execErr := &tool.ExecutionError{Tool: "charge", Err: errors.New("timeout"), Repeatable: false}

	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "", execErr
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	// Returned as-is, not wrapped in ExhaustedError
	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
	assert.ErrorIs(t, err, execErr)
}

// TestDo_RepeatableToolErrorRetried tests that repeatable tool failures
// are retried.
func TestDo_RepeatableToolErrorRetried(t *testing.T) {
	calls := 0
	execErr := &tool.ExecutionError{Tool: "search", Err: errors.New("timeout"), Repeatable: true}

	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "", execErr
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

// TestDo_ContextCancelledDuringBackoff tests cancellation while
// waiting.
func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := Policy{
		MaxAttempts:   3,
		InitialDelay:  time.Minute,
		BackoffFactor: 2.0,
	}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, p, func(context.Context) (string, error) {
		calls++
		return "", errors.New("transient")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

// TestDo_RetryIfOverride tests a custom retryability check.
func TestDo_RetryIfOverride(t *testing.T) {
	calls := 0
	p := fastPolicy(3)
	p.RetryIf = func(err error) bool { return false }

	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "", errors.New("anything")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

// TestPolicy_Validate tests policy field checks.
func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.NoError(t, NoRetry().Validate())

	assert.Error(t, Policy{MaxAttempts: 0}.Validate())
	assert.Error(t, Policy{MaxAttempts: 3, BackoffFactor: 1.0}.Validate())
	assert.Error(t, Policy{MaxAttempts: 1, InitialDelay: -time.Second}.Validate())
}

// TestWrap_RetriesStep tests the step wrapper.
func TestWrap_RetriesStep(t *testing.T) {
	calls := 0
	step := func(ctx agentgraph.Context, state agentgraph.State) (agentgraph.Update, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("transient")
		}
		return agentgraph.Update{agentgraph.KeyOutput: state.Input()}, nil
	}

	compiled, err := agentgraph.NewGraph(agentgraph.BaseSchema()).
		AddStep("flaky", Wrap(step, fastPolicy(3))).
		AddEdge("flaky", agentgraph.END).
		SetEntry("flaky").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(agentgraph.NewContext(context.Background()),
		agentgraph.State{agentgraph.KeyInput: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "hello", result.Output())
	assert.Equal(t, 2, calls)
}

// TestInvoke_RetriesTool tests tool invocation through a policy.
func TestInvoke_RetriesTool(t *testing.T) {
	calls := 0
	flaky := tool.NewFunctionTool("flaky", "fails once", map[string]any{"type": "object"},
		func(ctx context.Context, params map[string]any) (string, error) {
			calls++
			if calls < 2 {
				return "", errors.New("transient")
			}
			return "ok", nil
		},
		tool.WithIdempotent())

	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(flaky))

	result, err := Invoke(context.Background(), registry, fastPolicy(3), "flaky", nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

// TestInvoke_NonIdempotentToolNotRetried tests that a failing
// non-idempotent tool is invoked once.
func TestInvoke_NonIdempotentToolNotRetried(t *testing.T) {
	calls := 0
	charge := tool.NewFunctionTool("charge", "side effects", map[string]any{"type": "object"},
		func(ctx context.Context, params map[string]any) (string, error) {
			calls++
			return "", errors.New("timeout")
		})

	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(charge))

	_, err := Invoke(context.Background(), registry, fastPolicy(3), "charge", nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

// TestInvoke_IdempotencyKeyAllowsRetry tests that an idempotency key
// makes a non-idempotent tool retryable.
func TestInvoke_IdempotencyKeyAllowsRetry(t *testing.T) {
	calls := 0
	charge := tool.NewFunctionTool("charge", "side effects", map[string]any{"type": "object"},
		func(ctx context.Context, params map[string]any) (string, error) {
			calls++
			if calls < 2 {
				return "", errors.New("timeout")
			}
			return "charged", nil
		})

	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(charge))

	result, err := Invoke(context.Background(), registry, fastPolicy(3), "charge",
		map[string]any{tool.ParamIdempotencyKey: "txn-42"})

	require.NoError(t, err)
	assert.Equal(t, "charged", result)
	assert.Equal(t, 2, calls)
}

// TestFromConfig tests policy construction from configuration.
func TestFromConfig(t *testing.T) {
	cfg := config.New(map[string]any{
		"max_attempts":   5,
		"initial_delay":  "250ms",
		"backoff_factor": 1.5,
	})

	p, err := FromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.InitialDelay)
	assert.Equal(t, 1.5, p.BackoffFactor)
	assert.Equal(t, DefaultPolicy().MaxDelay, p.MaxDelay)
}

// TestFromConfig_Invalid tests rejection of bad configuration.
func TestFromConfig_Invalid(t *testing.T) {
	cfg := config.New(map[string]any{"max_attempts": 0})

	_, err := FromConfig(cfg)
	require.Error(t, err)
}
