// Package tool implements the external-collaborator boundary of a graph
// run: named capabilities invoked with schema-validated structured
// parameters that perform one side-effecting action and return text.
package tool

import (
	"context"
	"errors"
	"fmt"
)

// Tool is one external capability. The graph core treats every tool as a
// black box returning text; it never interprets tool-specific response
// shapes. Side effects are entirely the tool's responsibility.
//
// Implementations must be safe for concurrent use.
type Tool interface {
	// Name returns the unique tool identifier (snake_case recommended).
	Name() string

	// Description returns a short human-readable description.
	Description() string

	// Parameters returns a minimal JSON-Schema-like map describing the
	// accepted arguments (type, properties, required).
	Parameters() map[string]any

	// Idempotent reports whether the underlying action is safe to repeat.
	// Non-idempotent tools are refused by the default retry guard unless
	// the call carries an idempotency key.
	Idempotent() bool

	// Call executes the tool with already-validated parameters.
	Call(ctx context.Context, params map[string]any) (string, error)
}

// ParamIdempotencyKey is the well-known parameter that marks a single
// invocation of a non-idempotent tool as safe to repeat.
const ParamIdempotencyKey = "idempotency_key"

// ErrUnknownTool indicates an invocation of an unregistered tool name.
var ErrUnknownTool = errors.New("unknown tool")

// ExecutionError wraps any downstream tool failure (network, validation,
// business-rule rejection) with the tool name and a repeatability flag
// consumed by the retry guard.
type ExecutionError struct {
	// Tool is the name of the tool that failed.
	Tool string
	// Err is the underlying cause.
	Err error
	// Repeatable reports whether retrying the invocation is safe.
	Repeatable bool
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Repeatable reports whether err may be retried. Errors that are not
// ExecutionErrors are considered repeatable; the caller decides whether
// retrying makes sense for them.
func Repeatable(err error) bool {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Repeatable
	}
	return true
}

// ValidationError reports a parameter that violates the tool's declared
// schema. Validation failures are never worth retrying with the same
// parameters.
type ValidationError struct {
	// Field is the parameter that failed validation.
	Field string
	// Value is the value that was provided, nil if missing.
	Value any
	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}
