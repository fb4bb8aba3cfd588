/*
Package agentgraph provides graph-based orchestration for LLM agents.

# Overview

agentgraph is a Go library for building and executing directed graphs
where steps perform work and edges define flow. It's designed for
orchestrating agent workflows with conditional branching, per-user
conversation memory, and tool invocation.

The library is inspired by LangGraph but built for Go with:
  - Declared state schemas with partial updates from each step
  - Compile-time validation of graph structure and reachability
  - Per-user conversation memory with pluggable backends
  - OpenTelemetry integration for observability

# Basic Usage

Create a graph with steps and edges, then compile and run:

	func process(ctx agentgraph.Context, state agentgraph.State) (agentgraph.Update, error) {
	    return agentgraph.Update{agentgraph.KeyOutput: "Processed: " + state.Input()}, nil
	}

	func main() {
	    graph := agentgraph.NewGraph(agentgraph.BaseSchema()).
	        AddStep("process", process).
	        AddEdge("process", agentgraph.END).
	        SetEntry("process")

	    compiled, err := graph.Compile()
	    if err != nil {
	        log.Fatal(err)
	    }

	    ctx := agentgraph.NewContext(context.Background())
	    result, err := compiled.Run(ctx, agentgraph.State{agentgraph.KeyInput: "hello"})
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(result.Output()) // "Processed: hello"
	}

Steps return a partial Update rather than the full state. Updated fields
overwrite the corresponding state fields; fields absent from the update
keep their previous values. Writing a field the schema does not declare
fails the run with a SchemaError.

# Conditional Branching

Use conditional edges for decision points:

	graph.AddConditionalEdge("review", func(ctx agentgraph.Context, state agentgraph.State) string {
	    if state.String("approved") == "yes" {
	        return "publish"
	    }
	    return "revise"
	})

The router function returns the ID of the next step to execute.
Invalid return values (referencing non-existent steps) fail the run with
a GraphError.

Each step executes at most once per run. Routing back to a step that has
already executed fails the run; graphs are pipelines with branches, not
loop constructs. Retry behavior belongs inside a step (see the retry
subpackage).

# Conversation Memory

Attach a memory factory to give each user an isolated conversation
store:

	factory := memory.NewFactory()

	result, err := compiled.Run(ctx, agentgraph.State{
	    agentgraph.KeyInput:  "what did I ask earlier?",
	    agentgraph.KeyUserID: "u-42",
	}, agentgraph.WithMemory(factory))

When the schema declares the user_id field, the run resolves that user's
store before the entry step, loads prior messages into the history field
(when declared), and records the input/output exchange after the run
succeeds. Steps can also access the store directly via ctx.Memory().

# Tool Invocation

Register tools on a registry and hand it to the run context:

	registry := tool.NewRegistry()
	registry.Register(searchTool)

	ctx := agentgraph.NewContext(context.Background(), agentgraph.WithTools(registry))

	// In a step:
	result, err := ctx.Tools().Invoke(ctx, "search", map[string]any{"query": q})

Tool failures carry a Repeatable flag so retry policies know whether a
re-invocation is safe.

# Observability

Enable logging, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := agentgraph.NewContext(context.Background(), agentgraph.WithLogger(logger))

	result, err := compiled.Run(ctx, state,
	    agentgraph.WithMetrics(true),
	    agentgraph.WithTracing(true),
	    agentgraph.WithRunID("run-123"))

Logs include structured fields: run_id, step_id, duration_ms.
OpenTelemetry metrics: agentgraph.step.executions, agentgraph.step.latency_ms, etc.
OpenTelemetry tracing: agentgraph.run > agentgraph.step.{id} spans.

# Error Handling

Errors include context about which step failed:

	result, err := compiled.Run(ctx, state)
	var graphErr *agentgraph.GraphError
	if errors.As(err, &graphErr) {
	    log.Printf("step %s failed during %s: %v", graphErr.Step, graphErr.Op, graphErr.Err)
	}

	var panicErr *agentgraph.PanicError
	if errors.As(err, &panicErr) {
	    log.Printf("step %s panicked: %v\n%s", panicErr.Step, panicErr.Value, panicErr.Stack)
	}

Panics in steps are recovered and converted to PanicError with stack
trace. A failed run returns a nil state; callers never see partially
updated state.

# Thread Safety

  - Graph is NOT safe for concurrent use during construction
  - CompiledGraph IS safe for concurrent use (immutable)
  - Context IS safe for concurrent use
  - memory.Factory and tool.Registry are safe for concurrent use

# Subpackages

  - memory: Per-user conversation stores (in-memory, SQLite)
  - tool: Tool interface, registry, and parameter validation
  - retry: Bounded exponential backoff for steps and tool calls
  - model: LLM adapters (Anthropic, OpenAI) exposed as steps or tools
  - observability: Logging, metrics, and tracing helpers
  - config: File-backed configuration for factories and policies
*/
package agentgraph
