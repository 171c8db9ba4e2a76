package patch

import "fmt"

// BlockDefaultSource is the block kind the normalizer inserts for
// unconnected input ports. Every catalog must declare it: a derived
// constant whose output payload unifies through the edge and whose value
// comes from the "value" parameter.
const BlockDefaultSource = "default"

// VariadicPortName returns the expanded name of slot i of a variadic
// port.
func VariadicPortName(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

// ExpandedInputs returns the node's effective input port specs: fixed
// ports as declared, variadic ports replaced by the indexed set
// base[0..n-1] sized by the edges present in the snapshot. The expansion
// is pure and deterministic, so the solver and lowering derive the same
// port set from the same normalized snapshot.
func ExpandedInputs(s *Snapshot, n *Node, decl *BlockDecl) []PortSpec {
	out := make([]PortSpec, 0, len(decl.Inputs))
	for _, spec := range decl.Inputs {
		if !spec.Variadic {
			out = append(out, spec)
			continue
		}
		count := 0
		for {
			name := VariadicPortName(spec.Name, count)
			if len(s.EdgesInto(PortRef{Node: n.ID, Port: name})) == 0 {
				break
			}
			count++
		}
		for i := 0; i < count; i++ {
			slot := spec
			slot.Name = VariadicPortName(spec.Name, i)
			slot.Variadic = false
			out = append(out, slot)
		}
	}
	return out
}
