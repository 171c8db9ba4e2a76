package normalize

import (
	"fmt"

	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/patch"
)

// insertAdapters splices a derived adapter node into every edge whose
// endpoint payloads are declaration-fixed to different kinds. If the
// catalog registers no conversion rule for the pair, the edge is a
// compile error; it is never silently dropped, and the edge stays in the
// graph so later passes still see the user's intent.
//
// Edges with a generic endpoint need no adapter: they unify.
func insertAdapters(snap *patch.Snapshot, cat patch.Catalog, diags *patch.DiagList) *patch.Snapshot {
	nodes := append([]patch.Node(nil), snap.Nodes()...)
	var edges []patch.Edge
	changed := false

	for _, e := range snap.Edges() {
		if !e.Enabled {
			edges = append(edges, e)
			continue
		}
		from, to, ok := declaredPayloads(snap, cat, e)
		if !ok || !from.Resolved() || !to.Resolved() || from.Value() == to.Value() {
			edges = append(edges, e)
			continue
		}

		kind, found := cat.AdapterFor(from.Value(), to.Value())
		if !found {
			*diags = append(*diags, patch.Diagnostic{
				Code:    patch.CodeNoAdapter,
				Node:    e.To.Node,
				Port:    e.To.Port,
				Other:   e.From.Node,
				OtherPt: e.From.Port,
				Message: fmt.Sprintf("no conversion from %s to %s", from.Value(), to.Value()),
			})
			edges = append(edges, e)
			continue
		}

		anchor := fmt.Sprintf("%s->%s", e.From, e.To)
		adapter := patch.Node{
			ID:     patch.NodeID(fmt.Sprintf("d/adapt/%s", anchor)),
			Block:  kind,
			Role:   patch.RoleDerived,
			Reason: patch.ReasonAdapter,
			Anchor: anchor,
		}
		nodes = append(nodes, adapter)
		edges = append(edges,
			patch.Edge{
				From:    e.From,
				To:      patch.PortRef{Node: adapter.ID, Port: "in"},
				Role:    patch.EdgeAuto,
				Enabled: true,
			},
			patch.Edge{
				From:    patch.PortRef{Node: adapter.ID, Port: "out"},
				To:      e.To,
				Role:    e.Role,
				Enabled: e.Enabled,
			},
		)
		changed = true
	}

	if !changed {
		return snap
	}
	out, err := patch.NewSnapshot(nodes, edges, snap.Instances())
	if err != nil {
		panic(fmt.Sprintf("normalize: adapter insertion broke the graph: %v", err))
	}
	return out
}

// declaredPayloads returns the declaration-fixed payload axes of an
// edge's endpoints. ok is false when either block is unknown or either
// port undeclared; those conditions carry their own diagnostics
// elsewhere.
func declaredPayloads(snap *patch.Snapshot, cat patch.Catalog, e patch.Edge) (from, to ctype.Axis[ctype.Payload], ok bool) {
	fromNode, okF := snap.Node(e.From.Node)
	toNode, okT := snap.Node(e.To.Node)
	if !okF || !okT {
		return from, to, false
	}
	fromDecl, okF := cat.Decl(fromNode.Block)
	toDecl, okT := cat.Decl(toNode.Block)
	if !okF || !okT {
		return from, to, false
	}
	fromSpec, okF := fromDecl.Output(e.From.Port)
	if !okF {
		return from, to, false
	}
	toSpec, okT := toDecl.Input(e.To.Port)
	if !okT {
		// The edge may target an expanded variadic slot.
		base, idx := variadicBase(e.To.Port)
		if idx < 0 {
			return from, to, false
		}
		toSpec, okT = toDecl.Input(base)
		if !okT || !toSpec.Variadic {
			return from, to, false
		}
	}
	return fromSpec.Payload.Fixed, toSpec.Payload.Fixed, true
}
