package agentgraph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for creating execution graphs.
// Use NewGraph to create a graph over a declared state schema, then
// chain AddStep, AddEdge, AddConditionalEdge, and SetEntry calls to
// define the flow.
//
// Graph is NOT thread-safe during building. Construct it from a single
// goroutine, then call Compile() to create an immutable CompiledGraph
// that can be shared freely.
//
// Example:
//
//	graph := agentgraph.NewGraph(agentgraph.BaseSchema()).
//	    AddStep("classify", classify).
//	    AddStep("search", search).
//	    AddStep("refund", refund).
//	    AddConditionalEdge("classify", route).
//	    AddEdge("search", agentgraph.END).
//	    AddEdge("refund", agentgraph.END).
//	    SetEntry("classify")
//
//	compiled, err := graph.Compile()
type Graph struct {
	mu      sync.RWMutex
	schema  Schema
	steps   map[string]StepFunc
	edges   map[string][]string
	routers map[string]RouterFunc
	entry   string
}

// NewGraph creates a graph builder whose runs carry state shaped by the
// given schema.
func NewGraph(schema Schema) *Graph {
	return &Graph{
		schema:  schema,
		steps:   make(map[string]StepFunc),
		edges:   make(map[string][]string),
		routers: make(map[string]RouterFunc),
	}
}

// AddStep adds a named step to the graph.
// Returns the graph for method chaining.
//
// Panics if:
//   - id is empty
//   - id is the reserved word "END" or "__end__" (case-insensitive)
//   - id contains whitespace
//   - fn is nil
//   - id already exists in the graph
func (g *Graph) AddStep(id string, fn StepFunc) *Graph {
	if id == "" {
		panic("agentgraph: step ID cannot be empty")
	}

	idLower := strings.ToLower(id)
	if idLower == "end" || idLower == "__end__" {
		panic("agentgraph: step ID cannot be reserved word 'END'")
	}

	if strings.ContainsAny(id, " \t\n\r") {
		panic("agentgraph: step ID cannot contain whitespace")
	}

	if fn == nil {
		panic("agentgraph: step function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.steps[id]; exists {
		panic(fmt.Sprintf("agentgraph: duplicate step ID: %s", id))
	}

	g.steps[id] = fn
	return g
}

// AddEdge adds an unconditional edge from one step to another.
// The target can be a step ID or agentgraph.END.
// Returns the graph for method chaining.
//
// Edge validation happens at Compile() time, not here, so edges may be
// added in any order. A step resolves to exactly one successor: a second
// fixed edge from the same step, or a fixed edge alongside a router, is
// rejected at Compile().
func (g *Graph) AddEdge(from, to string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge attaches a router that picks the successor at
// runtime from the current state.
// Returns the graph for method chaining.
//
// The router must return a valid step ID or agentgraph.END.
func (g *Graph) AddConditionalEdge(from string, router RouterFunc) *Graph {
	if router == nil {
		panic("agentgraph: router function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.routers[from] = router
	return g
}

// SetEntry designates the entry point step.
// This must be called before Compile().
// Returns the graph for method chaining.
func (g *Graph) SetEntry(id string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entry = id
	return g
}

// Schema returns the declared state schema.
func (g *Graph) Schema() Schema {
	return g.schema
}
