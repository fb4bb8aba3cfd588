package agentgraph

import (
	"context"
	"log/slog"

	"github.com/agentgraph/agentgraph/pkg/agentgraph/memory"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/tool"
	"github.com/google/uuid"
)

// Context provides execution context to steps.
// It extends context.Context with run services and metadata.
//
// Context is immutable after creation. The executor creates derived
// contexts per step with the step ID set and the logger enriched.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with run and step
	// context during execution. Never returns nil.
	Logger() *slog.Logger

	// Tools returns the tool registry, or nil if not configured.
	// Steps should check for nil before invoking.
	Tools() *tool.Registry

	// Memory returns the conversation store resolved for this run's
	// user, or nil when memory is not enabled for the run.
	Memory() memory.ConversationStore

	// Metadata

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// StepID returns the step currently executing.
	// Empty string before execution starts.
	StepID() string
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger *slog.Logger
	tools  *tool.Registry
	store  memory.ConversationStore
	runID  string
	stepID string
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// Tools returns the tool registry.
func (c *executionContext) Tools() *tool.Registry {
	return c.tools
}

// Memory returns the conversation store for the current run.
func (c *executionContext) Memory() memory.ConversationStore {
	return c.store
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// StepID returns the current step identifier.
func (c *executionContext) StepID() string {
	return c.stepID
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger is enriched with run_id and step_id during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithTools sets the tool registry available to steps.
func WithTools(registry *tool.Registry) ContextOption {
	return func(c *executionContext) {
		c.tools = registry
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID is generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
// The returned Context wraps the provided context.Context and adds run
// services and metadata.
//
// Example:
//
//	ctx := agentgraph.NewContext(context.Background(),
//	    agentgraph.WithLogger(myLogger),
//	    agentgraph.WithTools(registry))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withStepID returns a derived context with the step ID set and the
// logger enriched. Used internally by the executor.
func (c *executionContext) withStepID(stepID string) *executionContext {
	return &executionContext{
		Context: c.Context,
		logger:  c.logger.With("run_id", c.runID, "step_id", stepID),
		tools:   c.tools,
		store:   c.store,
		runID:   c.runID,
		stepID:  stepID,
	}
}

// withMemory returns a derived context carrying the conversation store
// resolved for this run's user. Used internally by the executor.
func (c *executionContext) withMemory(store memory.ConversationStore) *executionContext {
	return &executionContext{
		Context: c.Context,
		logger:  c.logger,
		tools:   c.tools,
		store:   store,
		runID:   c.runID,
		stepID:  c.stepID,
	}
}
