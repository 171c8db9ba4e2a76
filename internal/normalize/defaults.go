package normalize

import (
	"fmt"

	"github.com/waveline/strobe/internal/patch"
)

// materializeDefaults inserts a derived constant node plus default-role
// edge for every unconnected, non-variadic input port. After this pass
// "no connection" no longer exists: every input has exactly one producer.
//
// The pass is idempotent: ports already fed by any enabled edge
// (including a previously materialized default) are left alone.
func materializeDefaults(snap *patch.Snapshot, cat patch.Catalog, diags *patch.DiagList) *patch.Snapshot {
	nodes := append([]patch.Node(nil), snap.Nodes()...)
	edges := append([]patch.Edge(nil), snap.Edges()...)
	added := false

	for _, n := range snap.Nodes() {
		decl, ok := cat.Decl(n.Block)
		if !ok {
			// Unknown block kinds are the solver's diagnostic; skip here.
			continue
		}
		for _, spec := range decl.Inputs {
			if spec.Variadic {
				continue
			}
			ref := patch.PortRef{Node: n.ID, Port: spec.Name}
			if len(snap.EdgesInto(ref)) > 0 {
				continue
			}

			anchor := fmt.Sprintf("%s.%s", n.ID, spec.Name)
			src := patch.Node{
				ID:     patch.NodeID(fmt.Sprintf("d/default/%s", anchor)),
				Block:  patch.BlockDefaultSource,
				Role:   patch.RoleDerived,
				Reason: patch.ReasonDefaultSource,
				Anchor: anchor,
				Params: map[string]patch.Param{
					"value": patch.VecParam(append([]float64(nil), spec.Default...)),
				},
			}
			nodes = append(nodes, src)
			edges = append(edges, patch.Edge{
				From:    patch.PortRef{Node: src.ID, Port: "out"},
				To:      ref,
				Role:    patch.EdgeDefault,
				Enabled: true,
			})
			added = true
		}
	}

	if !added {
		return snap
	}
	out, err := patch.NewSnapshot(nodes, edges, snap.Instances())
	if err != nil {
		panic(fmt.Sprintf("normalize: default materialization broke the graph: %v", err))
	}
	return out
}
