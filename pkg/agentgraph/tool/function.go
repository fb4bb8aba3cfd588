package tool

import (
	"context"
)

// Func is the implementation signature for function-backed tools.
// Parameters have been validated against the tool's schema by the time
// the function runs.
type Func func(ctx context.Context, params map[string]any) (string, error)

// FunctionTool adapts a plain Go function into a Tool. It holds the
// parameter schema, validates arguments before execution, and normalizes
// failures into *ExecutionError.
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	idempotent  bool
	fn          Func
}

// Compile-time interface check.
var _ Tool = (*FunctionTool)(nil)

// Option configures a FunctionTool.
type Option func(*FunctionTool)

// WithIdempotent declares the underlying action safe to repeat.
// Tools default to non-idempotent; declaring idempotency is an explicit
// contract, not an inference.
func WithIdempotent() Option {
	return func(t *FunctionTool) {
		t.idempotent = true
	}
}

// NewFunctionTool constructs a FunctionTool from an explicit schema.
//
//	search := tool.NewFunctionTool(
//	    "web_search",
//	    "Search the web for a query",
//	    map[string]any{
//	        "type": "object",
//	        "properties": map[string]any{
//	            "query": map[string]any{"type": "string"},
//	        },
//	        "required": []string{"query"},
//	    },
//	    func(ctx context.Context, params map[string]any) (string, error) {
//	        return doSearch(ctx, params["query"].(string))
//	    },
//	    tool.WithIdempotent(),
//	)
func NewFunctionTool(name, description string, parameters map[string]any, fn Func, opts ...Option) *FunctionTool {
	t := &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFunctionToolFromStruct derives the parameter schema from a struct
// via SchemaFromStruct.
func NewFunctionToolFromStruct(name, description string, structType any, fn Func, opts ...Option) *FunctionTool {
	return NewFunctionTool(name, description, SchemaFromStruct(structType), fn, opts...)
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the tool description.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the declared parameter schema.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Idempotent reports the declared idempotency contract.
func (t *FunctionTool) Idempotent() bool { return t.idempotent }

// Call validates params against the declared schema, then invokes the
// wrapped function. Failures come back as *ExecutionError; validation
// failures are marked non-repeatable because the same parameters cannot
// pass on a second attempt.
func (t *FunctionTool) Call(ctx context.Context, params map[string]any) (string, error) {
	if err := ValidateParams(params, t.parameters); err != nil {
		return "", &ExecutionError{Tool: t.name, Err: err, Repeatable: false}
	}

	result, err := t.fn(ctx, params)
	if err != nil {
		if execErr, ok := err.(*ExecutionError); ok {
			return "", execErr
		}
		return "", &ExecutionError{
			Tool:       t.name,
			Err:        err,
			Repeatable: repeatable(t, params),
		}
	}
	return result, nil
}

// repeatable resolves the per-invocation retry contract: the tool's
// declared idempotency, or an explicit idempotency key on the call.
func repeatable(t Tool, params map[string]any) bool {
	if t.Idempotent() {
		return true
	}
	_, hasKey := params[ParamIdempotencyKey]
	return hasKey
}
