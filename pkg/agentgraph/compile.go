package agentgraph

import (
	"errors"
	"fmt"
)

// Compile validates the graph and creates an executable CompiledGraph.
// Returns an error if validation fails; multiple failures are joined.
//
// Validation checks (in order):
//  1. Entry point must be set and reference an existing step
//  2. All edge endpoints must reference existing steps or END
//  3. Every step must resolve to exactly one successor: a single fixed
//     edge or a router, never both, never more than one fixed edge
//  4. Every step must be reachable from the entry point
//  5. A path from the entry point to END must exist
func (g *Graph) Compile() (*CompiledGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	compileErr := func(step string, err error) {
		errs = append(errs, &GraphError{Step: step, Op: "compile", Err: err})
	}

	// 1. Entry point
	if g.entry == "" {
		compileErr("", ErrNoEntryPoint)
	} else if _, exists := g.steps[g.entry]; !exists {
		compileErr(g.entry, ErrEntryNotFound)
	}

	// 2. Edge references
	for from, targets := range g.edges {
		if _, exists := g.steps[from]; !exists {
			compileErr(from, fmt.Errorf("%w: edge source %q", ErrStepNotFound, from))
		}
		for _, to := range targets {
			if to != END {
				if _, exists := g.steps[to]; !exists {
					compileErr(from, fmt.Errorf("%w: edge target %q", ErrStepNotFound, to))
				}
			}
		}
	}
	for from := range g.routers {
		if _, exists := g.steps[from]; !exists {
			compileErr(from, fmt.Errorf("%w: router source %q", ErrStepNotFound, from))
		}
	}

	// 3. Unambiguous successor per step
	for id := range g.steps {
		fixed := len(g.edges[id])
		_, hasRouter := g.routers[id]
		switch {
		case fixed == 0 && !hasRouter:
			compileErr(id, ErrNoSuccessor)
		case fixed > 1:
			compileErr(id, fmt.Errorf("%w: %d fixed edges", ErrAmbiguousEdges, fixed))
		case fixed == 1 && hasRouter:
			compileErr(id, fmt.Errorf("%w: fixed edge and router", ErrAmbiguousEdges))
		}
	}

	// 4 & 5. Reachability, only meaningful once the entry resolves
	if _, exists := g.steps[g.entry]; g.entry != "" && exists {
		reachable := g.reachableSteps()
		for id := range g.steps {
			if !reachable[id] {
				compileErr(id, ErrUnreachableStep)
			}
		}
		if !g.hasPathToEnd() {
			compileErr("", ErrNoPathToEnd)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.build(), nil
}

// reachableSteps returns the set of steps reachable from the entry.
// A router's targets are unknown at compile time, so a step with a
// router is assumed to potentially reach every step.
func (g *Graph) reachableSteps() map[string]bool {
	reachable := map[string]bool{g.entry: true}
	queue := []string{g.entry}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range g.edges[current] {
			if target != END && !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}

		if _, hasRouter := g.routers[current]; hasRouter {
			for id := range g.steps {
				if !reachable[id] {
					reachable[id] = true
					queue = append(queue, id)
				}
			}
		}
	}

	return reachable
}

// hasPathToEnd checks that END is reachable from the entry point using
// reverse propagation. A step with a router is assumed able to reach END
// because the router may return it.
func (g *Graph) hasPathToEnd() bool {
	canReachEnd := map[string]bool{END: true}

	changed := true
	for changed {
		changed = false

		for from, targets := range g.edges {
			if canReachEnd[from] {
				continue
			}
			for _, to := range targets {
				if canReachEnd[to] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}

		for from := range g.routers {
			if !canReachEnd[from] {
				canReachEnd[from] = true
				changed = true
			}
		}
	}

	return canReachEnd[g.entry]
}

// build creates the immutable CompiledGraph from the builder state.
func (g *Graph) build() *CompiledGraph {
	steps := make(map[string]StepFunc, len(g.steps))
	for id, fn := range g.steps {
		steps[id] = fn
	}

	// Successor resolution is unambiguous after validation: one fixed
	// edge or one router per step.
	successors := make(map[string]string, len(g.edges))
	for from, targets := range g.edges {
		successors[from] = targets[0]
	}

	routers := make(map[string]RouterFunc, len(g.routers))
	for from, router := range g.routers {
		routers[from] = router
	}

	return &CompiledGraph{
		schema:     g.schema,
		steps:      steps,
		successors: successors,
		routers:    routers,
		entry:      g.entry,
	}
}
