package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/strobe/internal/ctype"
)

func snap(t *testing.T, nodes []Node, edges []Edge) *Snapshot {
	t.Helper()
	s, err := NewSnapshot(nodes, edges, nil)
	require.NoError(t, err)
	return s
}

func TestNewSnapshot_RejectsDuplicateNodeID(t *testing.T) {
	_, err := NewSnapshot([]Node{{ID: "a"}, {ID: "a"}}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id")
}

func TestNewSnapshot_RejectsDanglingEdge(t *testing.T) {
	_, err := NewSnapshot(
		[]Node{{ID: "a"}},
		[]Edge{{From: PortRef{"a", "out"}, To: PortRef{"ghost", "in"}, Enabled: true}},
		nil,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target node")
}

func TestSnapshot_EdgeLookupSkipsDisabled(t *testing.T) {
	s := snap(t,
		[]Node{{ID: "a"}, {ID: "b"}},
		[]Edge{
			{From: PortRef{"a", "out"}, To: PortRef{"b", "in"}, Enabled: true},
			{From: PortRef{"a", "out"}, To: PortRef{"b", "in"}, Enabled: false},
		},
	)
	assert.Len(t, s.EdgesInto(PortRef{"b", "in"}), 1)
	assert.Len(t, s.EdgesOutOf(PortRef{"a", "out"}), 1)
}

func TestSnapshot_InstanceLookup(t *testing.T) {
	s, err := NewSnapshot(
		[]Node{{ID: "arr"}},
		nil,
		[]Instance{{ID: "arr", DeclaredBy: "arr", Count: 100}},
	)
	require.NoError(t, err)
	inst, ok := s.Instance(ctype.InstanceID("arr"))
	require.True(t, ok)
	assert.Equal(t, 100, inst.Count)
}

func TestStableStateID_UserVsDerived(t *testing.T) {
	user := &Node{ID: "delay1", Role: RoleUser}
	derived := &Node{
		ID:     "d-default-osc-freq",
		Role:   RoleDerived,
		Reason: ReasonDefaultSource,
		Anchor: "osc.freq",
	}
	assert.Equal(t, "state/u/delay1/held", StableStateID(user, "held"))
	assert.Equal(t, "state/d/default-source/osc.freq/held", StableStateID(derived, "held"))

	// Positional independence: the id never mentions a slot number, so
	// two nodes with the same role/anchor collide and distinct ones never do.
	other := &Node{ID: "delay2", Role: RoleUser}
	assert.NotEqual(t, StableStateID(user, "held"), StableStateID(other, "held"))
}

func TestDiagList_SortedIsDeterministic(t *testing.T) {
	l := DiagList{
		{Code: CodeNoAdapter, Node: "z", Port: "in"},
		{Code: CodeAxisConflict, Node: "a", Port: "out"},
		{Code: CodeAxisConflict, Node: "a", Port: "in"},
	}
	s1 := l.Sorted()
	s2 := l.Sorted()
	assert.Equal(t, s1, s2)
	assert.Equal(t, NodeID("a"), s1[0].Node)
	assert.Equal(t, "in", s1[0].Port)
	assert.Equal(t, NodeID("z"), s1[2].Node)
}

func TestDiagnostic_ErrorMentionsBothPorts(t *testing.T) {
	d := Diagnostic{
		Code:    CodeAxisConflict,
		Node:    "osc",
		Port:    "out",
		Other:   "mix",
		OtherPt: "a",
		Message: "cardinality axis conflict: one vs many(grid)",
	}
	msg := d.Error()
	assert.Contains(t, msg, "osc.out")
	assert.Contains(t, msg, "mix.a")
	assert.Contains(t, msg, "AXIS_CONFLICT")
}
