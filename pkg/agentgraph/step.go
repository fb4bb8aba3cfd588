package agentgraph

// END is the terminal step identifier.
// Use this as an edge target to indicate the graph should terminate.
const END = "__end__"

// StepFunc is the signature for all steps. A step receives the execution
// context and the current state, and returns a partial update to merge
// into the state (or nil for no change) and any error.
//
// Steps must read state through the parameter and write only by
// returning an Update; mutating the state map directly bypasses schema
// enforcement.
//
// Example:
//
//	func echo(ctx agentgraph.Context, s agentgraph.State) (agentgraph.Update, error) {
//	    return agentgraph.Update{agentgraph.KeyOutput: s.Input()}, nil
//	}
type StepFunc func(ctx Context, state State) (Update, error)

// RouterFunc determines the next step based on state. It is used for
// conditional edges where the successor depends on runtime state.
//
// The router must return a valid step name or END. Returning an empty
// string or an unknown step name fails the run with a GraphError.
//
// Example:
//
//	func route(ctx agentgraph.Context, s agentgraph.State) string {
//	    if s.String("intent") == "refund" {
//	        return "refund"
//	    }
//	    return "search"
//	}
type RouterFunc func(ctx Context, state State) string
