package agentgraph

// CompiledGraph is an immutable, executable graph created by Compile().
//
// CompiledGraph is safe for concurrent use: multiple Run() calls may
// proceed at once, each with its own State. The structure cannot be
// modified after compilation.
type CompiledGraph struct {
	schema     Schema
	steps      map[string]StepFunc
	successors map[string]string
	routers    map[string]RouterFunc
	entry      string
}

// EntryPoint returns the entry step ID.
func (cg *CompiledGraph) EntryPoint() string {
	return cg.entry
}

// Schema returns the state schema runs are validated against.
func (cg *CompiledGraph) Schema() Schema {
	return cg.schema
}

// StepIDs returns all step identifiers in the graph.
// The order is not guaranteed.
func (cg *CompiledGraph) StepIDs() []string {
	ids := make([]string, 0, len(cg.steps))
	for id := range cg.steps {
		ids = append(ids, id)
	}
	return ids
}

// HasStep checks if a step exists in the graph.
func (cg *CompiledGraph) HasStep(id string) bool {
	_, exists := cg.steps[id]
	return exists
}

// Successor returns the fixed successor of a step, or "" when the step
// routes conditionally.
func (cg *CompiledGraph) Successor(id string) string {
	return cg.successors[id]
}

// IsConditional returns true if the step resolves its successor through
// a router.
func (cg *CompiledGraph) IsConditional(id string) bool {
	_, exists := cg.routers[id]
	return exists
}

// getStep returns the step function for the given ID.
// Used internally by the executor.
func (cg *CompiledGraph) getStep(id string) (StepFunc, bool) {
	fn, exists := cg.steps[id]
	return fn, exists
}

// getRouter returns the router for the given step.
// Used internally by the executor.
func (cg *CompiledGraph) getRouter(id string) (RouterFunc, bool) {
	router, exists := cg.routers[id]
	return router, exists
}
