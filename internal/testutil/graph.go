// Package testutil provides shared helpers for building patches and
// frame sequences in tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waveline/strobe/internal/patch"
)

// ParamKV names one node parameter for GraphBuilder.Node.
type ParamKV struct {
	Name string
	Val  patch.Param
}

// Num is a numeric parameter.
func Num(name string, v float64) ParamKV { return ParamKV{name, patch.NumParam(v)} }

// Str is a string parameter.
func Str(name, s string) ParamKV { return ParamKV{name, patch.StrParam(s)} }

// Vec is a lane-vector parameter.
func Vec(name string, lanes ...float64) ParamKV { return ParamKV{name, patch.VecParam(lanes)} }

// GraphBuilder accumulates nodes and wires with less ceremony than raw
// patch literals. All nodes are user-authored; derivation is the
// compiler's job.
type GraphBuilder struct {
	nodes []patch.Node
	edges []patch.Edge
}

// NewGraph returns an empty builder.
func NewGraph() *GraphBuilder {
	return &GraphBuilder{}
}

// Node adds a user node.
func (g *GraphBuilder) Node(id, block string, params ...ParamKV) *GraphBuilder {
	n := patch.Node{ID: patch.NodeID(id), Block: block}
	if len(params) > 0 {
		n.Params = make(map[string]patch.Param, len(params))
		for _, p := range params {
			n.Params[p.Name] = p.Val
		}
	}
	g.nodes = append(g.nodes, n)
	return g
}

// Wire adds an enabled user edge.
func (g *GraphBuilder) Wire(from, fromPort, to, toPort string) *GraphBuilder {
	g.edges = append(g.edges, patch.Edge{
		From:    patch.PortRef{Node: patch.NodeID(from), Port: fromPort},
		To:      patch.PortRef{Node: patch.NodeID(to), Port: toPort},
		Role:    patch.EdgeUser,
		Enabled: true,
	})
	return g
}

// DisabledWire adds a user edge with its enable flag off.
func (g *GraphBuilder) DisabledWire(from, fromPort, to, toPort string) *GraphBuilder {
	g.edges = append(g.edges, patch.Edge{
		From: patch.PortRef{Node: patch.NodeID(from), Port: fromPort},
		To:   patch.PortRef{Node: patch.NodeID(to), Port: toPort},
		Role: patch.EdgeUser,
	})
	return g
}

// Build validates and returns the snapshot.
func (g *GraphBuilder) Build(t *testing.T) *patch.Snapshot {
	t.Helper()
	snap, err := patch.NewSnapshot(g.nodes, g.edges, nil)
	require.NoError(t, err)
	return snap
}
