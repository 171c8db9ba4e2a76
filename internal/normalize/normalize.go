package normalize

import (
	"fmt"

	"github.com/waveline/strobe/internal/patch"
)

// Run normalizes a raw snapshot. The returned snapshot has no implicit
// structure: composites are gone, every input port has a producer,
// payload mismatches are adapted or reported, variadic ports are
// indexed, and declared instances are collected.
//
// Diagnostics accumulate across all passes; a failing early pass does
// not hide later passes' findings.
func Run(snap *patch.Snapshot, cat patch.Catalog) (*patch.Snapshot, patch.DiagList) {
	var diags patch.DiagList

	snap = expandComposites(snap, cat, &diags)
	snap = materializeDefaults(snap, cat, &diags)
	snap = insertAdapters(snap, cat, &diags)
	snap = resolveVariadics(snap, cat, &diags)
	snap = collectInstances(snap, cat)

	return snap, diags.Sorted()
}

// collectInstances gathers the instances declared by array-like nodes
// into the snapshot, in node declaration order.
func collectInstances(snap *patch.Snapshot, cat patch.Catalog) *patch.Snapshot {
	var instances []patch.Instance
	for i := range snap.Nodes() {
		n := &snap.Nodes()[i]
		decl, ok := cat.Decl(n.Block)
		if !ok || decl.DeclaresInstance == nil {
			continue
		}
		if inst, ok := decl.DeclaresInstance(n); ok {
			instances = append(instances, inst)
		}
	}
	out, err := patch.NewSnapshot(snap.Nodes(), snap.Edges(), instances)
	if err != nil {
		panic(fmt.Sprintf("normalize: instance collection broke the graph: %v", err))
	}
	return out
}
