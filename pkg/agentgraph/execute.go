package agentgraph

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/agentgraph/agentgraph/pkg/agentgraph/memory"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/observability"
	"go.opentelemetry.io/otel/trace"
)

// Run executes the graph with the given initial state.
// Returns the final state, or a typed error and no state: a failed run
// never exposes partially updated state.
//
// Execution flow:
//  1. Validate the initial state against the schema and clone it
//  2. Resolve the user's conversation store when memory is enabled
//  3. Starting at the entry step: check cancellation, execute the step,
//     merge its partial update, resolve the successor
//  4. Stop when the successor is END
//  5. Append the input/output exchange to the conversation store
//
// Each step executes at most once per invocation; routing back to an
// already-executed step fails the run.
func (cg *CompiledGraph) Run(ctx Context, initial State, opts ...RunOption) (result State, runErr error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}
	logger := ctx.Logger()

	startTime := time.Now()
	observability.LogRunStart(logger, runID)

	state := initial.Clone()
	if err := state.validate(cg.schema); err != nil {
		observability.LogRunError(logger, runID, err, 0, "")
		return nil, err
	}

	// Resolve the per-user conversation store before the entry step.
	var store memory.ConversationStore
	if cfg.memoryFactory != nil && cg.schema.Has(KeyUserID) {
		var err error
		store, err = cfg.memoryFactory.CreateOrGet(state.UserID())
		if err != nil {
			observability.LogRunError(logger, runID, err, 0, "")
			return nil, err
		}
		if cg.schema.Has(KeyHistory) {
			msgs, err := store.Messages()
			if err != nil {
				observability.LogRunError(logger, runID, err, 0, "")
				return nil, fmt.Errorf("load history: %w", err)
			}
			state[KeyHistory] = msgs
		}
		if ec, ok := ctx.(*executionContext); ok {
			ctx = ec.withMemory(store)
		}
	}

	// Start run span if tracing enabled
	var execCtx context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, cfg.graphName, runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	final, stepCount, runErr := cg.runFrom(execCtx, ctx, state, &cfg)

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())
	cfg.metrics.RecordGraphRun(ctx, runErr == nil, duration)

	if runErr != nil {
		lastStep := ""
		switch e := runErr.(type) {
		case *GraphError:
			lastStep = e.Step
		case *SchemaError:
			lastStep = e.Step
		case *PanicError:
			lastStep = e.Step
		case *CancellationError:
			lastStep = e.Step
		}
		observability.LogRunError(logger, runID, runErr, durationMs, lastStep)
		return nil, runErr
	}

	// One exchange per run: the caller's input and the produced output.
	if store != nil {
		if err := appendExchange(store, final); err != nil {
			observability.LogRunError(logger, runID, err, durationMs, "")
			return nil, err
		}
	}

	observability.LogRunComplete(logger, runID, durationMs, stepCount)
	return final, nil
}

// Invoke is the request-level entry point: it builds the initial state
// from the request text and optional user identifier, runs the graph,
// and returns the output field of the final state.
func (cg *CompiledGraph) Invoke(ctx Context, input, userID string, opts ...RunOption) (string, error) {
	state := State{KeyInput: input}
	if cg.schema.Has(KeyUserID) && userID != "" {
		state[KeyUserID] = userID
	}

	final, err := cg.Run(ctx, state, opts...)
	if err != nil {
		return "", err
	}
	return final.Output(), nil
}

// runFrom executes the step loop. tracingCtx carries span context; ctx
// is the run Context handed to steps.
// Returns the final state, the number of steps executed, and any error.
func (cg *CompiledGraph) runFrom(tracingCtx context.Context, ctx Context, state State, cfg *runConfig) (State, int, error) {
	current := cg.entry
	executed := make(map[string]bool, len(cg.steps))
	stepCount := 0
	logger := ctx.Logger()

	for current != END {
		if executed[current] {
			return nil, stepCount, &GraphError{Step: current, Op: "route", Err: ErrStepRepeated}
		}
		executed[current] = true

		// Check for cancellation before executing the step
		select {
		case <-ctx.Done():
			return nil, stepCount, &CancellationError{Step: current, Cause: ctx.Err()}
		default:
		}

		observability.LogStepStart(logger, current)

		stepTracingCtx := tracingCtx
		var stepSpan trace.Span
		if cfg.tracingEnabled {
			stepTracingCtx, stepSpan = cfg.spans.StartStepSpan(tracingCtx, current)
		}

		stepStart := time.Now()
		update, stepErr := cg.executeStep(ctx, current, state)
		stepDuration := time.Since(stepStart)

		cfg.metrics.RecordStepExecution(stepTracingCtx, current, stepDuration, stepErr)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(stepSpan, stepErr)
		}

		if stepErr != nil {
			observability.LogStepError(logger, current, stepErr)
			return nil, stepCount, stepErr
		}

		if err := state.merge(cg.schema, current, update); err != nil {
			observability.LogStepError(logger, current, err)
			return nil, stepCount, err
		}

		observability.LogStepComplete(logger, current, float64(stepDuration.Milliseconds()))
		stepCount++

		next, err := cg.nextStep(ctx, state, current)
		if err != nil {
			return nil, stepCount, err
		}
		current = next
	}

	return state, stepCount, nil
}

// executeStep executes a single step with panic recovery.
// Returns the step's partial update and any error (including wrapped
// panics).
func (cg *CompiledGraph) executeStep(ctx Context, stepID string, state State) (update Update, err error) {
	fn, exists := cg.getStep(stepID)
	if !exists {
		// Unreachable after a successful Compile
		return nil, &GraphError{Step: stepID, Op: "execute", Err: ErrStepNotFound}
	}

	stepCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		stepCtx = ec.withStepID(stepID)
	}

	defer func() {
		if r := recover(); r != nil {
			update = nil
			err = &PanicError{
				Step:  stepID,
				Value: r,
				Stack: string(debug.Stack()),
			}
		}
	}()

	update, err = fn(stepCtx, state)
	if err != nil {
		return nil, &GraphError{Step: stepID, Op: "execute", Err: err}
	}

	return update, nil
}

// nextStep determines the step to execute after current.
// Successor resolution is unambiguous after compilation: a router if one
// is attached, the single fixed edge otherwise.
func (cg *CompiledGraph) nextStep(ctx Context, state State, current string) (string, error) {
	if router, exists := cg.getRouter(current); exists {
		routerCtx := ctx
		if ec, ok := ctx.(*executionContext); ok {
			routerCtx = ec.withStepID(current)
		}

		next := router(routerCtx, state)

		if next == "" {
			return "", &GraphError{Step: current, Op: "route", Err: ErrEmptyRoute}
		}
		if next != END {
			if _, exists := cg.getStep(next); !exists {
				return "", &GraphError{
					Step: current,
					Op:   "route",
					Err:  fmt.Errorf("%w: %q", ErrUnknownRoute, next),
				}
			}
		}
		return next, nil
	}

	next, exists := cg.successors[current]
	if !exists {
		// Unreachable after a successful Compile
		return "", &GraphError{Step: current, Op: "route", Err: ErrNoSuccessor}
	}
	return next, nil
}

// appendExchange records the run's input and output on the user's
// conversation store.
func appendExchange(store memory.ConversationStore, final State) error {
	if input := final.Input(); input != "" {
		if err := store.Append(memory.Message{Role: memory.RoleUser, Content: input}); err != nil {
			return fmt.Errorf("append user message: %w", err)
		}
	}
	if output := final.Output(); output != "" {
		if err := store.Append(memory.Message{Role: memory.RoleAssistant, Content: output}); err != nil {
			return fmt.Errorf("append assistant message: %w", err)
		}
	}
	return nil
}
