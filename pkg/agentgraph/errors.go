package agentgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building and compilation.
var (
	// ErrNoEntryPoint indicates SetEntry() was not called before Compile().
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrEntryNotFound indicates the entry point references a non-existent step.
	ErrEntryNotFound = errors.New("entry point step not found")

	// ErrStepNotFound indicates an edge references a non-existent step.
	ErrStepNotFound = errors.New("step not found")

	// ErrNoPathToEnd indicates no path exists from the entry point to END.
	ErrNoPathToEnd = errors.New("no path to END from entry")

	// ErrUnreachableStep indicates a step cannot be reached from the entry point.
	ErrUnreachableStep = errors.New("step unreachable from entry")

	// ErrAmbiguousEdges indicates a step has more than one fixed edge, or a
	// fixed edge alongside a router. Successor resolution must be unambiguous.
	ErrAmbiguousEdges = errors.New("ambiguous successor")

	// ErrNoSuccessor indicates a step has neither a fixed edge nor a router.
	ErrNoSuccessor = errors.New("no successor")
)

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrEmptyRoute indicates a router function returned an empty string.
	ErrEmptyRoute = errors.New("router returned empty string")

	// ErrUnknownRoute indicates a router function returned an unknown step name.
	ErrUnknownRoute = errors.New("router returned unknown step")

	// ErrStepRepeated indicates routing revisited a step that already ran in
	// this invocation. Each step executes at most once per run.
	ErrStepRepeated = errors.New("step already executed in this run")

	// ErrUndeclaredField indicates a step returned an update for a field the
	// graph's schema does not declare.
	ErrUndeclaredField = errors.New("field not declared in schema")
)

// GraphError reports a structural or execution problem in a graph: a failed
// compilation check, a routing failure, or an unrecovered step error.
type GraphError struct {
	// Step is the step involved, empty for graph-wide compile failures.
	Step string
	// Op is the failed operation ("compile", "route", "execute").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("graph %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("graph %s at step %s: %v", e.Op, e.Step, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *GraphError) Unwrap() error {
	return e.Err
}

// SchemaError reports a step update that violates the graph's declared
// state schema. Schema violations are unrecoverable and abort the run.
type SchemaError struct {
	// Step is the step that produced the offending update.
	Step string
	// Field is the undeclared field name.
	Field string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("field %q not declared in schema", e.Field)
	}
	return fmt.Sprintf("step %s returned field %q not declared in schema", e.Step, e.Field)
}

// Unwrap returns ErrUndeclaredField for errors.Is support.
func (e *SchemaError) Unwrap() error {
	return ErrUndeclaredField
}

// PanicError captures panic information from step execution, including
// the stack trace for debugging.
type PanicError struct {
	// Step is the step that panicked.
	Step string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("step %s panicked: %v", e.Step, e.Value)
}

// CancellationError reports that the run's context was cancelled before
// the named step could execute.
type CancellationError struct {
	// Step is the step that was about to execute.
	Step string
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before step %s: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
