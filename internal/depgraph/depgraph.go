package depgraph

import (
	"fmt"
	"sort"

	"github.com/waveline/strobe/internal/patch"
)

// CycleInfo describes one strongly connected component that forms a
// cycle (more than one member, or a self-loop).
type CycleInfo struct {
	Members []patch.NodeID `json:"members"` // sorted for stable output
	// ViaState is true when every within-frame path around the cycle is
	// broken by a latched state input, making it a legal feedback loop.
	// A stateful node that samples its input within the frame (pulse)
	// does not break a cycle.
	ViaState bool `json:"via_state"`
}

// Analysis is the dependency-and-cycle result for one normalized patch.
// Cycles and Diags are valid even when scheduling later fails; the
// frontend consumes them directly.
type Analysis struct {
	// Cycles lists every cyclic component, legal or not, in first-member
	// order.
	Cycles []CycleInfo
	// Order is the Phase-1 evaluation order over all nodes. Only
	// meaningful when Diags is empty.
	Order []patch.NodeID
	Diags patch.DiagList
}

// Analyze builds the dependency graph and classifies every cycle.
func Analyze(snap *patch.Snapshot, cat patch.Catalog) *Analysis {
	nodes := snap.Nodes()
	index := make(map[patch.NodeID]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	// full: every producer -> consumer dependency.
	// phase1: the same minus edges into latched inputs, which only the
	// consumer's Phase-2 state write reads and so impose no within-frame
	// order.
	full := make([][]int, len(nodes))
	phase1 := make([][]int, len(nodes))
	for _, e := range snap.Edges() {
		if !e.Enabled {
			continue
		}
		from, okF := index[e.From.Node]
		to, okT := index[e.To.Node]
		if !okF || !okT {
			continue
		}
		full[from] = append(full[from], to)
		if !latchedInput(snap, cat, e.To) {
			phase1[from] = append(phase1[from], to)
		}
	}

	// A node is stuck when the within-frame graph still cycles through
	// it; any full-graph cycle touching a stuck node is unschedulable.
	stuck := make([]bool, len(nodes))
	for _, scc := range tarjan(phase1) {
		if len(scc) > 1 || hasSelfLoop(scc[0], phase1) {
			for _, i := range scc {
				stuck[i] = true
			}
		}
	}

	a := &Analysis{}
	for _, scc := range tarjan(full) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], full) {
			continue
		}
		info := CycleInfo{ViaState: true}
		for _, i := range scc {
			info.Members = append(info.Members, nodes[i].ID)
			if stuck[i] {
				info.ViaState = false
			}
		}
		sort.Slice(info.Members, func(x, y int) bool { return info.Members[x] < info.Members[y] })
		a.Cycles = append(a.Cycles, info)

		if !info.ViaState {
			a.Diags = append(a.Diags, patch.Diagnostic{
				Code:    patch.CodeCombinatorialCycle,
				Node:    info.Members[0],
				Message: fmt.Sprintf("dependency cycle %v is not broken by any state input", info.Members),
			})
		}
	}
	sort.Slice(a.Cycles, func(x, y int) bool {
		return a.Cycles[x].Members[0] < a.Cycles[y].Members[0]
	})
	a.Diags = a.Diags.Sorted()

	a.Order = topoOrder(nodes, phase1)
	return a
}

// latchedInput reports whether an edge target is a latched input port.
// Unknown blocks or ports keep the dependency; they carry their own
// diagnostics elsewhere.
func latchedInput(snap *patch.Snapshot, cat patch.Catalog, to patch.PortRef) bool {
	n, ok := snap.Node(to.Node)
	if !ok {
		return false
	}
	decl, ok := cat.Decl(n.Block)
	if !ok {
		return false
	}
	spec, ok := decl.Input(to.Port)
	return ok && spec.Latched
}

// hasSelfLoop reports whether node i depends directly on itself.
func hasSelfLoop(i int, graph [][]int) bool {
	for _, j := range graph[i] {
		if j == i {
			return true
		}
	}
	return false
}

// tarjan finds strongly connected components over a dense-index graph.
// Nodes are visited in index order so component output is deterministic.
// The DFS runs on an explicit frame stack: patch depth is then bounded
// by memory, not the goroutine stack.
func tarjan(graph [][]int) [][]int {
	n := len(graph)
	var (
		next    = 0
		indices = make([]int, n)
		lowlink = make([]int, n)
		onStack = make([]bool, n)
		stack   []int
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	// frame is one suspended visit: node v with its next successor edge.
	type frame struct {
		v, edge int
	}
	var work []frame

	enter := func(v int) {
		indices[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true
		work = append(work, frame{v: v})
	}

	for root := 0; root < n; root++ {
		if indices[root] >= 0 {
			continue
		}
		enter(root)
		for len(work) > 0 {
			f := &work[len(work)-1]
			if f.edge < len(graph[f.v]) {
				w := graph[f.v][f.edge]
				f.edge++
				if indices[w] < 0 {
					enter(w) // f may dangle past this append
				} else if onStack[w] && indices[w] < lowlink[f.v] {
					lowlink[f.v] = indices[w]
				}
				continue
			}

			// v is exhausted: fold its lowlink into the parent, then
			// pop its component if it is a root.
			v := f.v
			work = work[:len(work)-1]
			if len(work) > 0 {
				p := &work[len(work)-1]
				if lowlink[v] < lowlink[p.v] {
					lowlink[p.v] = lowlink[v]
				}
			}
			if lowlink[v] == indices[v] {
				var scc []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, scc)
			}
		}
	}
	return sccs
}

// topoOrder is Kahn's algorithm with declaration-order tie-breaking:
// among ready nodes the lowest index always dequeues first, so identical
// graphs order identically. Nodes caught in (illegal) residual cycles
// are appended in index order at the end; callers only use the order
// when analysis produced no diagnostics.
func topoOrder(nodes []patch.Node, graph [][]int) []patch.NodeID {
	n := len(nodes)
	indeg := make([]int, n)
	for _, succs := range graph {
		for _, w := range succs {
			indeg[w]++
		}
	}

	// ready is kept sorted; n is small enough that a linear scan per pop
	// would also do, but a heap-free ordered insert keeps it simple.
	var ready []int
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	var order []patch.NodeID
	seen := make([]bool, n)
	for len(ready) > 0 {
		v := ready[0]
		ready = ready[1:]
		seen[v] = true
		order = append(order, nodes[v].ID)
		for _, w := range graph[v] {
			indeg[w]--
			if indeg[w] == 0 {
				pos := sort.SearchInts(ready, w)
				ready = append(ready, 0)
				copy(ready[pos+1:], ready[pos:])
				ready[pos] = w
			}
		}
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			order = append(order, nodes[i].ID)
		}
	}
	return order
}
