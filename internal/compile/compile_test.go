package compile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/strobe/internal/blocks"
	"github.com/waveline/strobe/internal/compile"
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
	"github.com/waveline/strobe/internal/solve"
	"github.com/waveline/strobe/internal/testutil"
)

func TestCompile_CleanPatchYieldsProgram(t *testing.T) {
	snap := testutil.NewGraph().
		Node("n", "number", testutil.Num("value", 3)).
		Node("out", "render").
		Wire("n", "out", "out", "in").
		Build(t)

	res := compile.Compile(snap, blocks.Builtin())
	require.True(t, res.Frontend.OK(), "diags: %v", res.Frontend.Diags)
	require.NotNil(t, res.Program)
	assert.NotEmpty(t, res.Program.Hash)
}

func TestCompile_FrontendSurvivesBrokenBackend(t *testing.T) {
	// a and b form a combinatorial cycle; the compile must still report
	// resolved types and the cycle itself.
	snap := testutil.NewGraph().
		Node("n", "number", testutil.Num("value", 1)).
		Node("a", "add").
		Node("b", "add").
		Node("out", "render").
		Wire("n", "out", "a", "b").
		Wire("a", "out", "b", "a").
		Wire("b", "out", "a", "a").
		Wire("b", "out", "out", "in").
		Build(t)

	res := compile.Compile(snap, blocks.Builtin())
	assert.Nil(t, res.Program)
	assert.True(t, res.Frontend.Diags.Has(patch.CodeCombinatorialCycle))

	require.Len(t, res.Frontend.Cycles, 1)
	assert.False(t, res.Frontend.Cycles[0].ViaState)
	assert.Equal(t, []patch.NodeID{"a", "b"}, res.Frontend.Cycles[0].Members)

	// Types resolved despite the broken schedule.
	assert.NotEmpty(t, res.Frontend.Types)
}

func TestCompile_StatefulCycleIsLegal(t *testing.T) {
	snap := testutil.NewGraph().
		Node("one", "number", testutil.Num("value", 1)).
		Node("add", "add").
		Node("dly", "delay").
		Node("out", "render").
		Wire("one", "out", "add", "a").
		Wire("add", "out", "dly", "in").
		Wire("dly", "out", "add", "b").
		Wire("add", "out", "out", "in").
		Build(t)

	res := compile.Compile(snap, blocks.Builtin())
	require.True(t, res.Frontend.OK(), "diags: %v", res.Frontend.Diags)
	require.Len(t, res.Frontend.Cycles, 1)
	assert.True(t, res.Frontend.Cycles[0].ViaState)
}

func TestCompile_DisabledWireIntoVariadicPortIsInert(t *testing.T) {
	// The dead wire comes first; the live one must still land at the
	// first expanded slot instead of pushing past the expansion.
	snap := testutil.NewGraph().
		Node("a", "number", testutil.Num("value", 1)).
		Node("b", "number", testutil.Num("value", 2)).
		Node("s", "sum").
		Node("out", "render").
		DisabledWire("a", "out", "s", "in").
		Wire("b", "out", "s", "in").
		Wire("s", "out", "out", "in").
		Build(t)

	res := compile.Compile(snap, blocks.Builtin())
	require.True(t, res.Frontend.OK(), "diags: %v", res.Frontend.Diags)
	require.NotNil(t, res.Program)

	_, ok := res.Frontend.Types[solve.PortKey{Node: "s", Port: "in[0]"}]
	assert.True(t, ok, "live wire feeds slot in[0]")
	_, ok = res.Frontend.Types[solve.PortKey{Node: "s", Port: "in[1]"}]
	assert.False(t, ok, "the dead wire must not expand a second slot")
}

func TestCompile_FeedbackThroughAccumSchedules(t *testing.T) {
	// accum's output reads last frame's total, so a loop through it is
	// as legal to schedule as one through delay.
	snap := testutil.NewGraph().
		Node("one", "number", testutil.Num("value", 1)).
		Node("add", "add").
		Node("acc", "accum").
		Node("out", "render").
		Wire("one", "out", "add", "a").
		Wire("add", "out", "acc", "in").
		Wire("acc", "out", "add", "b").
		Wire("add", "out", "out", "in").
		Build(t)

	res := compile.Compile(snap, blocks.Builtin())
	require.True(t, res.Frontend.OK(), "diags: %v", res.Frontend.Diags)
	require.NotNil(t, res.Program)
	require.Len(t, res.Frontend.Cycles, 1)
	assert.True(t, res.Frontend.Cycles[0].ViaState)
}

func TestCompile_FeedbackThroughPulseAloneIsIllegal(t *testing.T) {
	// pulse holds state but samples its input within the frame, so a
	// loop closed only through pulse has no within-frame break.
	snap := testutil.NewGraph().
		Node("one", "number", testutil.Num("value", 1)).
		Node("add", "add").
		Node("p", "pulse").
		Node("out", "render").
		Wire("one", "out", "add", "a").
		Wire("add", "out", "p", "in").
		Wire("p", "out", "add", "b").
		Wire("p", "out", "out", "in").
		Build(t)

	res := compile.Compile(snap, blocks.Builtin())
	assert.Nil(t, res.Program)
	assert.True(t, res.Frontend.Diags.Has(patch.CodeCombinatorialCycle))
}

func TestCompile_UnknownBlockIsCollected(t *testing.T) {
	snap := testutil.NewGraph().
		Node("x", "no-such-block").
		Build(t)

	res := compile.Compile(snap, blocks.Builtin())
	assert.Nil(t, res.Program)
	assert.True(t, res.Frontend.Diags.Has(patch.CodeUnknownBlock))
}

func TestCompile_AdapterSplicedAcrossPayloadMismatch(t *testing.T) {
	// number (float) into a vec2-fixed input: the float-to-vec2 rule
	// must splice a derived adapter rather than fail.
	reg := blocks.Builtin()
	reg.Register(&patch.BlockDecl{
		Kind: "vec2-sink",
		Inputs: []patch.PortSpec{{
			Name:    "in",
			Payload: patch.FixedSpec(ctype.PayloadVec2),
		}},
	}, func(c *lower.Ctx) error { return nil })

	snap := testutil.NewGraph().
		Node("n", "number", testutil.Num("value", 2)).
		Node("s", "vec2-sink").
		Wire("n", "out", "s", "in").
		Build(t)

	res := compile.Compile(snap, reg)
	require.True(t, res.Frontend.OK(), "diags: %v", res.Frontend.Diags)

	adapterIn, ok := res.Frontend.Types[solve.PortKey{Node: "s", Port: "in"}]
	require.True(t, ok)
	assert.Equal(t, ctype.PayloadVec2, adapterIn.Payload)

	var found bool
	for _, n := range res.Frontend.Snapshot.Nodes() {
		if n.Reason == patch.ReasonAdapter {
			found = true
		}
	}
	assert.True(t, found, "expected a derived adapter node")
}

func TestCompile_CompositeExpandsAndFansIn(t *testing.T) {
	// double(in) = in + in through a one-node composite with fan-in.
	snap := testutil.NewGraph().
		Node("n", "number", testutil.Num("value", 4)).
		Node("d", "double").
		Node("out", "render").
		Wire("n", "out", "d", "in").
		Wire("d", "out", "out", "in").
		Build(t)

	res := compile.Compile(snap, blocks.Builtin())
	require.True(t, res.Frontend.OK(), "diags: %v", res.Frontend.Diags)

	// The composite node is gone; its expansion exists.
	_, ok := res.Frontend.Snapshot.Node("d")
	assert.False(t, ok)
	inner, ok := res.Frontend.Snapshot.Node("d/add")
	require.True(t, ok)
	assert.Equal(t, patch.RoleDerived, inner.Role)
}
