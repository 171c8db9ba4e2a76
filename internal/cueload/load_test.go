package cueload

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/strobe/internal/patch"
)

func fromSource(t *testing.T, src string) (*patch.Snapshot, []error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return FromValue(v)
}

const wellFormed = `
patch: {
	nodes: {
		osc:  {block: "sin"}
		gain: {block: "number", params: {value: 0.5}}
		lay:  {block: "layout-line", params: {retire: "decay", origin: [1, 2]}}
		out:  {block: "render"}
	}
	wires: [
		{from: "osc.out", to: "out.in"},
		{from: "gain.out", to: "osc.in", disabled: true},
	]
}
`

func TestFromValue_WellFormedPatch(t *testing.T) {
	snap, errs := fromSource(t, wellFormed)
	require.Empty(t, errs)

	require.Len(t, snap.Nodes(), 4)
	gain, ok := snap.Node("gain")
	require.True(t, ok)
	assert.Equal(t, "number", gain.Block)
	assert.Equal(t, patch.NumParam(0.5), gain.Params["value"])

	lay, ok := snap.Node("lay")
	require.True(t, ok)
	assert.Equal(t, patch.StrParam("decay"), lay.Params["retire"])
	assert.Equal(t, patch.VecParam([]float64{1, 2}), lay.Params["origin"])

	require.Len(t, snap.Edges(), 2)
	assert.True(t, snap.Edges()[0].Enabled)
	assert.False(t, snap.Edges()[1].Enabled)
	assert.Equal(t, patch.EdgeUser, snap.Edges()[0].Role)
}

func TestFromValue_NodeOrderIsDeterministic(t *testing.T) {
	a, errs := fromSource(t, wellFormed)
	require.Empty(t, errs)
	b, errs := fromSource(t, wellFormed)
	require.Empty(t, errs)

	for i := range a.Nodes() {
		assert.Equal(t, a.Nodes()[i].ID, b.Nodes()[i].ID)
	}
}

func TestFromValue_MissingPatchStruct(t *testing.T) {
	_, errs := fromSource(t, `other: 1`)
	require.Len(t, errs, 1)
	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeNoPatch, le.Code)
}

func TestFromValue_CollectsAllErrors(t *testing.T) {
	_, errs := fromSource(t, `
patch: {
	nodes: {
		a: {params: {v: 1}}
		b: {block: "number", params: {v: true}}
	}
	wires: [
		{from: "a", to: "b.in"},
		{to: "b.in"},
	]
}
`)
	// Missing block, bad param kind, malformed endpoint, missing from.
	require.Len(t, errs, 4)
	for _, err := range errs {
		var le *LoadError
		assert.ErrorAs(t, err, &le)
	}
}

func TestFromValue_BadGraphReported(t *testing.T) {
	_, errs := fromSource(t, `
patch: {
	nodes: {
		a: {block: "number"}
		b: {block: "render"}
	}
	wires: [
		{from: "missing.out", to: "b.in"},
	]
}
`)
	require.Len(t, errs, 1)
	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeBadGraph, le.Code)
}
