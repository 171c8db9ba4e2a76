package normalize

import (
	"fmt"

	"github.com/waveline/strobe/internal/patch"
)

// maxCompositeDepth bounds nested composite expansion. A patch that
// legitimately nests this deep is not a patch, it is a bug.
const maxCompositeDepth = 32

// expandComposites replaces every composite node with its declared
// subgraph, repeatedly, until no composite nodes remain or the depth
// limit trips. Inner node ids are remapped to "<outer>/<inner>" so two
// expansions of the same block kind never collide.
func expandComposites(snap *patch.Snapshot, cat patch.Catalog, diags *patch.DiagList) *patch.Snapshot {
	for depth := 0; ; depth++ {
		expanded, any := expandOnce(snap, cat, diags)
		if !any {
			return expanded
		}
		if depth >= maxCompositeDepth {
			*diags = append(*diags, patch.Diagnostic{
				Code:    patch.CodeCompositeExpansion,
				Message: fmt.Sprintf("composite nesting exceeds depth %d; expansion aborted", maxCompositeDepth),
			})
			return expanded
		}
		snap = expanded
	}
}

func expandOnce(snap *patch.Snapshot, cat patch.Catalog, diags *patch.DiagList) (*patch.Snapshot, bool) {
	var (
		nodes    []patch.Node
		edges    []patch.Edge
		expanded bool
	)

	// Port rewiring tables for edges touching replaced nodes. An outer
	// input may fan into several inner ports.
	inBind := map[patch.PortRef][]patch.PortRef{}
	outBind := map[patch.PortRef]patch.PortRef{}

	for _, n := range snap.Nodes() {
		decl, ok := cat.Decl(n.Block)
		if !ok || decl.Composite == nil {
			nodes = append(nodes, n)
			continue
		}
		def := decl.Composite

		if selfReferential(def, n.Block, cat) {
			*diags = append(*diags, patch.Diagnostic{
				Code:    patch.CodeCompositeExpansion,
				Node:    n.ID,
				Message: fmt.Sprintf("composite block %q expands to itself", n.Block),
			})
			// Drop the node rather than loop forever; the diagnostic
			// already fails the compile.
			expanded = true
			continue
		}

		remap := func(inner patch.NodeID) patch.NodeID {
			return patch.NodeID(fmt.Sprintf("%s/%s", n.ID, inner))
		}

		for _, inner := range def.Nodes {
			clone := inner
			clone.ID = remap(inner.ID)
			clone.Role = patch.RoleDerived
			if clone.Reason == patch.ReasonNone {
				clone.Reason = patch.ReasonCompositeExpansion
			}
			if clone.Anchor == "" {
				clone.Anchor = fmt.Sprintf("%s/%s", n.ID, inner.ID)
			}
			nodes = append(nodes, clone)
		}
		for _, inner := range def.Edges {
			e := inner
			e.From.Node = remap(e.From.Node)
			e.To.Node = remap(e.To.Node)
			edges = append(edges, e)
		}
		for outer, inners := range def.InputBind {
			key := patch.PortRef{Node: n.ID, Port: outer}
			for _, inner := range inners {
				inBind[key] = append(inBind[key],
					patch.PortRef{Node: remap(inner.Node), Port: inner.Port})
			}
		}
		for outer, inner := range def.OutputBind {
			outBind[patch.PortRef{Node: n.ID, Port: outer}] =
				patch.PortRef{Node: remap(inner.Node), Port: inner.Port}
		}
		expanded = true
	}

	for _, e := range snap.Edges() {
		if from, ok := outBind[e.From]; ok {
			e.From = from
		}
		if tos, ok := inBind[e.To]; ok {
			for _, to := range tos {
				fan := e
				fan.To = to
				edges = append(edges, fan)
			}
			continue
		}
		edges = append(edges, e)
	}

	out, err := patch.NewSnapshot(nodes, edges, snap.Instances())
	if err != nil {
		// Expansion produced a structurally broken graph: a composite
		// definition wired a port to a node it does not contain.
		*diags = append(*diags, patch.Diagnostic{
			Code:    patch.CodeCompositeExpansion,
			Message: fmt.Sprintf("composite expansion produced invalid graph: %v", err),
		})
		return snap, false
	}
	return out, expanded
}

// selfReferential reports whether a composite's subgraph reaches its own
// kind, directly or through other composites.
func selfReferential(def *patch.CompositeDef, kind string, cat patch.Catalog) bool {
	seen := map[string]bool{}
	var walk func(d *patch.CompositeDef) bool
	walk = func(d *patch.CompositeDef) bool {
		for _, inner := range d.Nodes {
			if inner.Block == kind {
				return true
			}
			if seen[inner.Block] {
				continue
			}
			seen[inner.Block] = true
			if decl, ok := cat.Decl(inner.Block); ok && decl.Composite != nil {
				if walk(decl.Composite) {
					return true
				}
			}
		}
		return false
	}
	return walk(def)
}
