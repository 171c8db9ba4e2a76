package depgraph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/patch"
)

// testCatalog declares every block with one "in" port, latched for the
// kinds named. "trigger" stands in for a stateful block that samples
// its input within the frame.
type testCatalog struct{ latched map[string]bool }

func (c *testCatalog) Decl(kind string) (*patch.BlockDecl, bool) {
	return &patch.BlockDecl{
		Kind:     kind,
		Inputs:   []patch.PortSpec{{Name: "in", Latched: c.latched[kind]}},
		Stateful: c.latched[kind] || kind == "trigger",
	}, true
}

func (c *testCatalog) AdapterFor(from, to ctype.Payload) (string, bool) { return "", false }

func wire(from patch.NodeID, to patch.NodeID) patch.Edge {
	return patch.Edge{
		From:    patch.PortRef{Node: from, Port: "out"},
		To:      patch.PortRef{Node: to, Port: "in"},
		Enabled: true,
	}
}

func analyze(t *testing.T, nodes []patch.Node, edges []patch.Edge) *Analysis {
	t.Helper()
	snap, err := patch.NewSnapshot(nodes, edges, nil)
	require.NoError(t, err)
	return Analyze(snap, &testCatalog{latched: map[string]bool{"delay": true}})
}

func TestAnalyze_AcyclicChainOrders(t *testing.T) {
	a := analyze(t,
		[]patch.Node{{ID: "c", Block: "op"}, {ID: "b", Block: "op"}, {ID: "a", Block: "op"}},
		[]patch.Edge{wire("a", "b"), wire("b", "c")},
	)
	require.Empty(t, a.Diags)
	assert.Empty(t, a.Cycles)
	assert.Equal(t, []patch.NodeID{"a", "b", "c"}, a.Order)
}

func TestAnalyze_CombinatorialCycleRejected(t *testing.T) {
	a := analyze(t,
		[]patch.Node{{ID: "x", Block: "op"}, {ID: "y", Block: "op"}},
		[]patch.Edge{wire("x", "y"), wire("y", "x")},
	)
	require.Len(t, a.Cycles, 1)
	assert.False(t, a.Cycles[0].ViaState)
	assert.ElementsMatch(t, []patch.NodeID{"x", "y"}, a.Cycles[0].Members)
	require.True(t, a.Diags.Has(patch.CodeCombinatorialCycle))
}

func TestAnalyze_SelfLoopWithoutStateRejected(t *testing.T) {
	a := analyze(t,
		[]patch.Node{{ID: "x", Block: "op"}},
		[]patch.Edge{wire("x", "x")},
	)
	require.Len(t, a.Cycles, 1)
	assert.True(t, a.Diags.Has(patch.CodeCombinatorialCycle))
}

func TestAnalyze_FeedbackThroughDelayIsLegal(t *testing.T) {
	a := analyze(t,
		[]patch.Node{
			{ID: "add", Block: "op"},
			{ID: "dly", Block: "delay"},
		},
		[]patch.Edge{wire("add", "dly"), wire("dly", "add")},
	)
	require.Empty(t, a.Diags)
	require.Len(t, a.Cycles, 1)
	assert.True(t, a.Cycles[0].ViaState)

	// In Phase-1 order the delay's output is available before the adder
	// runs: the edge into the stateful node is not a Phase-1 dependency.
	assert.Equal(t, []patch.NodeID{"dly", "add"}, a.Order)
}

func TestAnalyze_UnlatchedStatefulNodeDoesNotBreakCycle(t *testing.T) {
	// trigger is stateful but samples its input within the frame, so a
	// loop through it alone has no within-frame break.
	a := analyze(t,
		[]patch.Node{
			{ID: "add", Block: "op"},
			{ID: "trg", Block: "trigger"},
		},
		[]patch.Edge{wire("add", "trg"), wire("trg", "add")},
	)
	require.Len(t, a.Cycles, 1)
	assert.False(t, a.Cycles[0].ViaState)
	assert.True(t, a.Diags.Has(patch.CodeCombinatorialCycle))
}

func TestAnalyze_UnlatchedStatefulNodeOrdersAfterProducer(t *testing.T) {
	// add -> trg -> dly -> add is legal (the delay breaks it), but the
	// trigger still needs its producer this frame: add must come first.
	a := analyze(t,
		[]patch.Node{
			{ID: "trg", Block: "trigger"},
			{ID: "add", Block: "op"},
			{ID: "dly", Block: "delay"},
		},
		[]patch.Edge{wire("add", "trg"), wire("trg", "dly"), wire("dly", "add")},
	)
	require.Empty(t, a.Diags)
	require.Len(t, a.Cycles, 1)
	assert.True(t, a.Cycles[0].ViaState)
	assert.Equal(t, []patch.NodeID{"dly", "add", "trg"}, a.Order)
}

func TestAnalyze_MixedCycleStillClassified(t *testing.T) {
	// Two interlocking cycles, one via state, one not: the combinatorial
	// one must still be reported.
	a := analyze(t,
		[]patch.Node{
			{ID: "a", Block: "op"},
			{ID: "b", Block: "op"},
			{ID: "c", Block: "op"},
			{ID: "d", Block: "delay"},
		},
		[]patch.Edge{
			wire("a", "b"), wire("b", "a"), // combinatorial
			wire("c", "d"), wire("d", "c"), // via state
		},
	)
	require.Len(t, a.Cycles, 2)
	assert.True(t, a.Diags.Has(patch.CodeCombinatorialCycle))

	legal := 0
	for _, cyc := range a.Cycles {
		if cyc.ViaState {
			legal++
		}
	}
	assert.Equal(t, 1, legal)
}

func TestAnalyze_Deterministic(t *testing.T) {
	nodes := []patch.Node{
		{ID: "n3", Block: "op"}, {ID: "n1", Block: "op"},
		{ID: "n2", Block: "op"}, {ID: "d", Block: "delay"},
	}
	edges := []patch.Edge{
		wire("n1", "n2"), wire("n2", "n3"),
		wire("n3", "d"), wire("d", "n1"),
	}
	a1 := analyze(t, nodes, edges)
	a2 := analyze(t, nodes, edges)
	assert.Equal(t, a1.Order, a2.Order)
	assert.Equal(t, a1.Cycles, a2.Cycles)
}

func TestAnalyze_DeepChainStaysOffTheCallStack(t *testing.T) {
	// A chain far deeper than any recursive DFS would survive. The whole
	// chain plus a closing delay edge forms one legal cycle.
	const depth = 200_000
	nodes := make([]patch.Node, depth)
	edges := make([]patch.Edge, 0, depth)
	for i := range nodes {
		nodes[i] = patch.Node{ID: patch.NodeID(fmt.Sprintf("n%06d", i)), Block: "op"}
		if i > 0 {
			edges = append(edges, wire(nodes[i-1].ID, nodes[i].ID))
		}
	}
	nodes[depth-1].Block = "delay"
	edges = append(edges, wire(nodes[depth-1].ID, nodes[0].ID))

	a := analyze(t, nodes, edges)
	require.Empty(t, a.Diags)
	require.Len(t, a.Cycles, 1)
	assert.True(t, a.Cycles[0].ViaState)
	assert.Len(t, a.Cycles[0].Members, depth)
	assert.Len(t, a.Order, depth)
}

func TestAnalyze_DisabledEdgesIgnored(t *testing.T) {
	e := wire("x", "y")
	e.Enabled = false
	back := wire("y", "x")
	a := analyze(t, []patch.Node{{ID: "x", Block: "op"}, {ID: "y", Block: "op"}}, []patch.Edge{e, back})
	assert.Empty(t, a.Cycles)
	assert.Empty(t, a.Diags)
}
