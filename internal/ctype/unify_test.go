package ctype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnify_VariableVariable(t *testing.T) {
	out, c := Unify(AxisTemporality, Var[Temporality](), Var[Temporality]())
	require.Nil(t, c)
	assert.False(t, out.Resolved(), "variable + variable stays a variable")
}

func TestUnify_VariableResolved(t *testing.T) {
	out, c := Unify(AxisTemporality, Var[Temporality](), Fixed(Discrete))
	require.Nil(t, c)
	require.True(t, out.Resolved())
	assert.Equal(t, Discrete, out.Value())
}

func TestUnify_ResolvedEqual(t *testing.T) {
	out, c := Unify(AxisCardinality, Fixed(Many("grid")), Fixed(Many("grid")))
	require.Nil(t, c)
	assert.Equal(t, Many("grid"), out.Value())
}

func TestUnify_ResolvedConflict(t *testing.T) {
	_, c := Unify(AxisCardinality, Fixed(Many("grid")), Fixed(One()))
	require.NotNil(t, c)
	assert.Equal(t, AxisCardinality, c.Axis)
	assert.Contains(t, c.Error(), "many(grid)")
	assert.Contains(t, c.Error(), "one")
}

func TestUnify_Commutative(t *testing.T) {
	cases := []struct {
		name string
		a, b Axis[Temporality]
	}{
		{"var/var", Var[Temporality](), Var[Temporality]()},
		{"var/resolved", Var[Temporality](), Fixed(Continuous)},
		{"resolved/resolved equal", Fixed(Discrete), Fixed(Discrete)},
		{"resolved/resolved conflict", Fixed(Discrete), Fixed(Continuous)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ab, cab := Unify(AxisTemporality, tc.a, tc.b)
			ba, cba := Unify(AxisTemporality, tc.b, tc.a)
			if cab != nil {
				require.NotNil(t, cba, "conflict must be symmetric")
				assert.Equal(t, cab.Axis, cba.Axis)
				return
			}
			require.Nil(t, cba)
			assert.Equal(t, ab, ba)
		})
	}
}

func TestUnify_AssociativeChain(t *testing.T) {
	// Unifying a chain of three terms yields the same result regardless
	// of pairing order, or fails identically.
	terms := []Axis[Cardinality]{
		Var[Cardinality](),
		Fixed(Many("dots")),
		Var[Cardinality](),
	}

	left, c1 := Unify(AxisCardinality, terms[0], terms[1])
	require.Nil(t, c1)
	leftOut, c1 := Unify(AxisCardinality, left, terms[2])
	require.Nil(t, c1)

	right, c2 := Unify(AxisCardinality, terms[1], terms[2])
	require.Nil(t, c2)
	rightOut, c2 := Unify(AxisCardinality, terms[0], right)
	require.Nil(t, c2)

	assert.Equal(t, leftOut, rightOut)
	assert.Equal(t, Many("dots"), leftOut.Value())
}

func TestUnify_AssociativeConflictChain(t *testing.T) {
	a := Fixed(One())
	b := Fixed(Many("dots"))
	v := Var[Cardinality]()

	// (a ∪ v) ∪ b and a ∪ (v ∪ b) must both fail.
	av, c := Unify(AxisCardinality, a, v)
	require.Nil(t, c)
	_, c1 := Unify(AxisCardinality, av, b)
	require.NotNil(t, c1)

	vb, c := Unify(AxisCardinality, v, b)
	require.Nil(t, c)
	_, c2 := Unify(AxisCardinality, a, vb)
	require.NotNil(t, c2)

	assert.Equal(t, c1.Axis, c2.Axis)
}

func TestUnifyType_AllAxes(t *testing.T) {
	a := Type{
		Payload: Fixed(PayloadVec2),
		Extent: Extent{
			Card:     Fixed(Many("pts")),
			Temporal: Var[Temporality](),
		},
	}
	b := Type{
		Payload: Var[Payload](),
		Extent: Extent{
			Card:     Var[Cardinality](),
			Temporal: Fixed(Continuous),
			Branch:   Fixed(DefaultBranch),
		},
	}
	out, c := UnifyType(a, b)
	require.Nil(t, c)
	assert.Equal(t, PayloadVec2, out.Payload.Value())
	assert.Equal(t, Many("pts"), out.Extent.Card.Value())
	assert.Equal(t, Continuous, out.Extent.Temporal.Value())
	assert.Equal(t, DefaultBranch, out.Extent.Branch.Value())
	assert.False(t, out.Extent.Bind.Resolved())
}

func TestUnifyType_ConflictNamesAxis(t *testing.T) {
	a := Of(PayloadFloat)
	b := Of(PayloadColor)
	_, c := UnifyType(a, b)
	require.NotNil(t, c)
	assert.Equal(t, AxisPayload, c.Axis)
}

func TestPayload_Stride(t *testing.T) {
	assert.Equal(t, 1, PayloadFloat.Stride())
	assert.Equal(t, 1, PayloadInt.Stride())
	assert.Equal(t, 1, PayloadBool.Stride())
	assert.Equal(t, 2, PayloadVec2.Stride())
	assert.Equal(t, 3, PayloadVec3.Stride())
	assert.Equal(t, 4, PayloadColor.Stride())
	assert.Equal(t, 1, PayloadShape.Stride())
	assert.Equal(t, 1, PayloadToken.Stride())
}

func TestParsePayload_RoundTrip(t *testing.T) {
	for _, p := range []Payload{
		PayloadFloat, PayloadInt, PayloadBool, PayloadVec2,
		PayloadVec3, PayloadColor, PayloadShape, PayloadToken,
	} {
		got, ok := ParsePayload(p.String())
		require.True(t, ok, "parse %s", p)
		assert.Equal(t, p, got)
	}
	_, ok := ParsePayload("quaternion")
	assert.False(t, ok)
}
