package agentgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// Helper step functions used across tests

// echo copies the input field to the output field.
func echo(ctx Context, state State) (Update, error) {
	return Update{KeyOutput: state.Input()}, nil
}

// passthrough returns an empty update.
func passthrough(ctx Context, state State) (Update, error) {
	return Update{}, nil
}

// makeTrackingStep creates a step that records its execution.
func makeTrackingStep(name string, tracker *[]string) StepFunc {
	return func(ctx Context, state State) (Update, error) {
		*tracker = append(*tracker, name)
		return Update{}, nil
	}
}

// makeFailingStep creates a step that returns the given error.
func makeFailingStep(err error) StepFunc {
	return func(ctx Context, state State) (Update, error) {
		return nil, err
	}
}

// makePanicStep creates a step that panics with the given value.
func makePanicStep(value any) StepFunc {
	return func(ctx Context, state State) (Update, error) {
		panic(value)
	}
}

// makeSettingStep creates a step that writes a single field.
func makeSettingStep(field string, value any) StepFunc {
	return func(ctx Context, state State) (Update, error) {
		return Update{field: value}, nil
	}
}

// routeOn returns a router that reads the given state field as the next
// step ID.
func routeOn(field string) RouterFunc {
	return func(ctx Context, state State) string {
		return state.String(field)
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}

// linearGraph builds and compiles a single-step graph running fn.
func linearGraph(t *testing.T, schema Schema, fn StepFunc) *CompiledGraph {
	t.Helper()
	compiled, err := NewGraph(schema).
		AddStep("step", fn).
		AddEdge("step", END).
		SetEntry("step").
		Compile()
	require.NoError(t, err)
	return compiled
}
