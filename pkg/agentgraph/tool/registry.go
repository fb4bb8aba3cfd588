package tool

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds the tools available to a graph's steps and dispatches
// invocations by name. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for invocation logging.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("register: tool cannot be nil")
	}
	if t.Name() == "" {
		return fmt.Errorf("register: tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("register: duplicate tool name %q", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// MustRegister registers tools and panics on error. Intended for wiring
// at startup where a duplicate name is a programming mistake.
func (r *Registry) MustRegister(tools ...Tool) *Registry {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic("tool: " + err.Error())
		}
	}
	return r
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches an invocation to the named tool and returns its text
// result. Every failure path yields an *ExecutionError carrying the tool
// name; unknown names are never repeatable.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]any) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", &ExecutionError{Tool: name, Err: ErrUnknownTool, Repeatable: false}
	}

	start := time.Now()
	r.logger.Debug("tool invocation starting", "tool", name)

	result, err := t.Call(ctx, params)
	if err != nil {
		execErr, ok := err.(*ExecutionError)
		if !ok {
			execErr = &ExecutionError{Tool: name, Err: err, Repeatable: repeatable(t, params)}
		}
		r.logger.Error("tool invocation failed",
			"tool", name,
			"error", execErr.Error(),
			"repeatable", execErr.Repeatable,
		)
		return "", execErr
	}

	r.logger.Debug("tool invocation completed",
		"tool", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
