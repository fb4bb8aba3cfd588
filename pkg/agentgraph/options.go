package agentgraph

import (
	"github.com/agentgraph/agentgraph/pkg/agentgraph/config"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/memory"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/observability"
)

// runConfig holds configuration for one graph execution.
type runConfig struct {
	runID          string
	memoryFactory  *memory.Factory
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	graphName      string
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		graphName: "agentgraph",
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithRunID overrides the run identifier used for logging and tracing.
// Defaults to the context's run ID.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithMemory enables per-user conversation memory for the run. The
// factory resolves the state's user_id to its ConversationStore before
// the entry step executes; the store is exposed to steps through
// Context.Memory(), and the run appends the input/output exchange after
// a successful run.
//
// Requires the graph schema to declare user_id. History is loaded into
// state only when the schema also declares history.
func WithMemory(factory *memory.Factory) RunOption {
	return func(c *runConfig) {
		c.memoryFactory = factory
	}
}

// WithMetrics enables OpenTelemetry metrics recording for the run.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry span creation for the run.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithGraphName sets the graph name used in run spans.
func WithGraphName(name string) RunOption {
	return func(c *runConfig) {
		if name != "" {
			c.graphName = name
		}
	}
}

// OptionsFromConfig builds run options from a configuration section.
//
// Keys:
//
//	metrics:    bool, enable OTel metrics (default false)
//	tracing:    bool, enable OTel spans   (default false)
//	graph_name: string, span naming       (default "agentgraph")
func OptionsFromConfig(cfg config.Config) []RunOption {
	return []RunOption{
		WithMetrics(cfg.Bool("metrics", false)),
		WithTracing(cfg.Bool("tracing", false)),
		WithGraphName(cfg.String("graph_name", "")),
	}
}
