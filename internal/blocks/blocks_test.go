package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/patch"
)

func TestBuiltin_DeclaresDefaultSource(t *testing.T) {
	r := Builtin()
	decl, ok := r.Decl(patch.BlockDefaultSource)
	require.True(t, ok, "every catalog must declare the default source")
	require.Len(t, decl.Outputs, 1)
	assert.False(t, decl.Outputs[0].Payload.Fixed.Resolved(), "default source payload is generic")
}

func TestBuiltin_EveryNonCompositeHasALowering(t *testing.T) {
	r := Builtin()
	for kind, decl := range r.decls {
		_, ok := r.Lower(kind)
		if decl.Composite != nil {
			assert.False(t, ok, "composite %q must not lower; it expands", kind)
			continue
		}
		assert.True(t, ok, "block %q has no lowering", kind)
	}
}

func TestBuiltin_StatefulBlocksDeclareStates(t *testing.T) {
	r := Builtin()
	for kind, decl := range r.decls {
		if decl.Stateful {
			assert.NotEmpty(t, decl.States, "stateful block %q declares no state", kind)
		} else {
			assert.Empty(t, decl.States, "stateless block %q declares state", kind)
		}
	}
}

func TestAdapterTable_ResolvesRegisteredPairs(t *testing.T) {
	r := Builtin()

	kind, ok := r.AdapterFor(ctype.PayloadInt, ctype.PayloadFloat)
	require.True(t, ok)
	assert.Equal(t, "int-to-float", kind)

	kind, ok = r.AdapterFor(ctype.PayloadFloat, ctype.PayloadColor)
	require.True(t, ok)
	assert.Equal(t, "float-to-color", kind)

	_, ok = r.AdapterFor(ctype.PayloadColor, ctype.PayloadFloat)
	assert.False(t, ok, "no narrowing rule is registered")
}

func TestRegister_DuplicateKindPanics(t *testing.T) {
	r := Builtin()
	assert.Panics(t, func() {
		r.Register(&patch.BlockDecl{Kind: "add"}, nil)
	})
}

func TestArray_DeclaresInstanceNamedAfterNode(t *testing.T) {
	r := Builtin()
	decl, ok := r.Decl("array")
	require.True(t, ok)
	require.NotNil(t, decl.DeclaresInstance)

	n := &patch.Node{ID: "grid", Block: "array", Params: map[string]patch.Param{
		"count": patch.NumParam(12),
	}}
	inst, ok := decl.DeclaresInstance(n)
	require.True(t, ok)
	assert.Equal(t, ctype.InstanceID("grid"), inst.ID)
	assert.Equal(t, 12, inst.Count)
	assert.Equal(t, patch.NodeID("grid"), inst.DeclaredBy)
}
