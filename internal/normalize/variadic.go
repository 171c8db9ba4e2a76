package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/waveline/strobe/internal/patch"
)

// resolveVariadics rewrites edges into variable-arity ports onto indexed
// port names, in edge declaration order. After this pass every edge
// targets a concrete port; patch.ExpandedInputs derives the matching
// port-spec set from the rewritten edges.
func resolveVariadics(snap *patch.Snapshot, cat patch.Catalog, diags *patch.DiagList) *patch.Snapshot {
	// Count connections per variadic base port as we walk edges in order.
	next := map[patch.PortRef]int{}
	edges := append([]patch.Edge(nil), snap.Edges()...)
	changed := false

	for i, e := range edges {
		// Disabled edges take no slot: ExpandedInputs counts enabled
		// edges only, and a dead wire must not shift live ones.
		if !e.Enabled {
			continue
		}
		node, ok := snap.Node(e.To.Node)
		if !ok {
			continue
		}
		decl, ok := cat.Decl(node.Block)
		if !ok {
			continue
		}
		spec, ok := decl.Input(e.To.Port)
		if !ok || !spec.Variadic {
			continue
		}
		slot := next[e.To]
		next[e.To] = slot + 1
		edges[i].To = patch.PortRef{
			Node: e.To.Node,
			Port: patch.VariadicPortName(e.To.Port, slot),
		}
		changed = true
	}

	if !changed {
		return snap
	}
	out, err := patch.NewSnapshot(snap.Nodes(), edges, snap.Instances())
	if err != nil {
		panic(fmt.Sprintf("normalize: variadic resolution broke the graph: %v", err))
	}
	return out
}

// variadicBase splits an expanded variadic port name "in[3]" into
// ("in", 3). Returns idx -1 for plain names.
func variadicBase(port string) (string, int) {
	open := strings.IndexByte(port, '[')
	if open < 0 || !strings.HasSuffix(port, "]") {
		return port, -1
	}
	idx, err := strconv.Atoi(port[open+1 : len(port)-1])
	if err != nil || idx < 0 {
		return port, -1
	}
	return port[:open], idx
}
