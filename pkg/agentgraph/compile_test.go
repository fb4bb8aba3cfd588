package agentgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompile_ValidLinear tests a valid linear graph compiles.
func TestCompile_ValidLinear(t *testing.T) {
	compiled, err := NewGraph(BaseSchema()).
		AddStep("a", passthrough).
		AddStep("b", passthrough).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()

	require.NoError(t, err)
	require.NotNil(t, compiled)
}

// TestCompile_NoEntryPoint tests compilation without an entry point.
func TestCompile_NoEntryPoint(t *testing.T) {
	_, err := NewGraph(BaseSchema()).
		AddStep("a", passthrough).
		AddEdge("a", END).
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

// TestCompile_EntryNotFound tests an entry referencing a missing step.
func TestCompile_EntryNotFound(t *testing.T) {
	_, err := NewGraph(BaseSchema()).
		AddStep("a", passthrough).
		AddEdge("a", END).
		SetEntry("missing").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

// TestCompile_EdgeToMissingStep tests an edge to a nonexistent step.
func TestCompile_EdgeToMissingStep(t *testing.T) {
	_, err := NewGraph(BaseSchema()).
		AddStep("a", passthrough).
		AddEdge("a", "ghost").
		SetEntry("a").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepNotFound)
}

// TestCompile_NoSuccessor tests a step with no outgoing edge.
func TestCompile_NoSuccessor(t *testing.T) {
	_, err := NewGraph(BaseSchema()).
		AddStep("a", passthrough).
		SetEntry("a").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSuccessor)
}

// TestCompile_AmbiguousFixedEdges tests two fixed edges from one step.
func TestCompile_AmbiguousFixedEdges(t *testing.T) {
	_, err := NewGraph(BaseSchema()).
		AddStep("a", passthrough).
		AddStep("b", passthrough).
		AddEdge("a", "b").
		AddEdge("a", END).
		AddEdge("b", END).
		SetEntry("a").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousEdges)
}

// TestCompile_FixedEdgeAndRouter tests a fixed edge alongside a router.
func TestCompile_FixedEdgeAndRouter(t *testing.T) {
	_, err := NewGraph(BaseSchema().With("route")).
		AddStep("a", passthrough).
		AddStep("b", passthrough).
		AddEdge("a", "b").
		AddConditionalEdge("a", routeOn("route")).
		AddEdge("b", END).
		SetEntry("a").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousEdges)
}

// TestCompile_UnreachableStep tests detection of an orphaned step.
func TestCompile_UnreachableStep(t *testing.T) {
	_, err := NewGraph(BaseSchema()).
		AddStep("a", passthrough).
		AddStep("orphan", passthrough).
		AddEdge("a", END).
		AddEdge("orphan", END).
		SetEntry("a").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachableStep)

	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, "compile", graphErr.Op)
}

// TestCompile_RouterReachesAll tests that steps behind a router count
// as reachable.
func TestCompile_RouterReachesAll(t *testing.T) {
	_, err := NewGraph(BaseSchema().With("route")).
		AddStep("start", passthrough).
		AddStep("left", passthrough).
		AddStep("right", passthrough).
		AddConditionalEdge("start", routeOn("route")).
		AddEdge("left", END).
		AddEdge("right", END).
		SetEntry("start").
		Compile()

	require.NoError(t, err)
}

// TestCompile_MultipleErrors tests that all failures are reported
// together.
func TestCompile_MultipleErrors(t *testing.T) {
	_, err := NewGraph(BaseSchema()).
		AddStep("a", passthrough).
		AddStep("orphan", passthrough).
		AddEdge("orphan", END).
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEntryPoint)
	assert.ErrorIs(t, err, ErrNoSuccessor)
}

// TestCompile_GraphReusableAfterCompile tests that compilation does not
// consume the builder.
func TestCompile_GraphReusableAfterCompile(t *testing.T) {
	graph := NewGraph(BaseSchema()).
		AddStep("a", echo).
		AddEdge("a", END).
		SetEntry("a")

	first, err := graph.Compile()
	require.NoError(t, err)
	second, err := graph.Compile()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}
