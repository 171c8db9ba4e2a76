package patch

import (
	"fmt"
	"sort"

	"github.com/waveline/strobe/internal/ctype"
)

// NodeID is the stable identity of a node. User node ids survive edits
// unchanged; derived node ids are built from their reason and anchor so
// the same derivation in two compiles of the same patch produces the
// same id.
type NodeID string

// PortRef names one port of one node. Direction is implied by position:
// an edge's From is always an output port, its To always an input port.
type PortRef struct {
	Node NodeID `json:"node"`
	Port string `json:"port"`
}

func (p PortRef) String() string { return fmt.Sprintf("%s.%s", p.Node, p.Port) }

// NodeRole distinguishes user-authored nodes from compiler-derived ones.
type NodeRole uint8

const (
	RoleUser NodeRole = iota
	RoleDerived
)

// DerivedReason discriminates why a derived node exists.
type DerivedReason uint8

const (
	ReasonNone DerivedReason = iota
	ReasonDefaultSource
	ReasonAdapter
	ReasonCompositeExpansion
	ReasonWireState
)

func (r DerivedReason) String() string {
	switch r {
	case ReasonDefaultSource:
		return "default-source"
	case ReasonAdapter:
		return "adapter"
	case ReasonCompositeExpansion:
		return "composite-expansion"
	case ReasonWireState:
		return "wire-state"
	default:
		return "none"
	}
}

// Param is a block parameter value: a number, a string, or a numeric
// vector (e.g. a color literal).
type Param struct {
	Num float64   `json:"num,omitempty"`
	Str string    `json:"str,omitempty"`
	Vec []float64 `json:"vec,omitempty"`
	// Kind: "num", "str", or "vec".
	Kind string `json:"kind"`
}

func NumParam(v float64) Param   { return Param{Kind: "num", Num: v} }
func StrParam(s string) Param    { return Param{Kind: "str", Str: s} }
func VecParam(v []float64) Param { return Param{Kind: "vec", Vec: v} }

// Node is one typed operation in the patch.
type Node struct {
	ID     NodeID           `json:"id"`
	Block  string           `json:"block"` // catalog kind
	Role   NodeRole         `json:"role"`
	Reason DerivedReason    `json:"reason,omitempty"`
	Anchor string           `json:"anchor,omitempty"` // derivation anchor, e.g. "osc.freq"
	Params map[string]Param `json:"params,omitempty"`
}

// NumParamOr returns the numeric parameter name, or def when absent.
func (n *Node) NumParamOr(name string, def float64) float64 {
	if p, ok := n.Params[name]; ok && p.Kind == "num" {
		return p.Num
	}
	return def
}

// EdgeRole distinguishes user wires from derived ones.
type EdgeRole uint8

const (
	EdgeUser EdgeRole = iota
	EdgeDefault
	EdgeAuto
)

// Edge is a directed connection from an output port to an input port.
// Edges never carry resolved types; types live on ports only.
type Edge struct {
	From    PortRef  `json:"from"`
	To      PortRef  `json:"to"`
	Role    EdgeRole `json:"role"`
	Enabled bool     `json:"enabled"`
}

// Instance describes the topology of an array of elements. Cardinality
// many(id) values are aligned to exactly one instance. Count may be
// static or driven per frame by the declaring node's count input.
type Instance struct {
	ID         ctype.InstanceID `json:"id"`
	DeclaredBy NodeID           `json:"declared_by"`
	Count      int              `json:"count"`
	Dynamic    bool             `json:"dynamic"`
}

// Snapshot is an immutable patch view. Nodes and edges keep their given
// order; all observable compiler output is derived from that order, never
// from map iteration.
type Snapshot struct {
	nodes     []Node
	edges     []Edge
	instances []Instance

	byID     map[NodeID]int
	inEdges  map[PortRef][]int // into input ports
	outEdges map[PortRef][]int // out of output ports
	instByID map[ctype.InstanceID]int
}

// NewSnapshot builds a snapshot and its lookup indexes. Duplicate node
// ids and dangling edge endpoints are rejected here, before any pass runs.
func NewSnapshot(nodes []Node, edges []Edge, instances []Instance) (*Snapshot, error) {
	s := &Snapshot{
		nodes:     append([]Node(nil), nodes...),
		edges:     append([]Edge(nil), edges...),
		instances: append([]Instance(nil), instances...),
		byID:      make(map[NodeID]int, len(nodes)),
		inEdges:   make(map[PortRef][]int),
		outEdges:  make(map[PortRef][]int),
		instByID:  make(map[ctype.InstanceID]int, len(instances)),
	}
	for i, n := range s.nodes {
		if _, dup := s.byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		s.byID[n.ID] = i
	}
	for i, e := range s.edges {
		if _, ok := s.byID[e.From.Node]; !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown source node", e.From, e.To)
		}
		if _, ok := s.byID[e.To.Node]; !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown target node", e.From, e.To)
		}
		s.inEdges[e.To] = append(s.inEdges[e.To], i)
		s.outEdges[e.From] = append(s.outEdges[e.From], i)
	}
	for i, inst := range s.instances {
		if _, dup := s.instByID[inst.ID]; dup {
			return nil, fmt.Errorf("duplicate instance id %q", inst.ID)
		}
		s.instByID[inst.ID] = i
	}
	return s, nil
}

// Nodes returns the nodes in declaration order. Callers must not mutate.
func (s *Snapshot) Nodes() []Node { return s.nodes }

// Edges returns the edges in declaration order. Callers must not mutate.
func (s *Snapshot) Edges() []Edge { return s.edges }

// Instances returns declared instances. Callers must not mutate.
func (s *Snapshot) Instances() []Instance { return s.instances }

// Node returns the node with the given id.
func (s *Snapshot) Node(id NodeID) (*Node, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.nodes[i], true
}

// Instance returns the instance with the given id.
func (s *Snapshot) Instance(id ctype.InstanceID) (*Instance, bool) {
	i, ok := s.instByID[id]
	if !ok {
		return nil, false
	}
	return &s.instances[i], true
}

// EdgesInto returns enabled edges into the given input port, in
// declaration order.
func (s *Snapshot) EdgesInto(p PortRef) []Edge {
	var out []Edge
	for _, i := range s.inEdges[p] {
		if s.edges[i].Enabled {
			out = append(out, s.edges[i])
		}
	}
	return out
}

// EdgesOutOf returns enabled edges out of the given output port, in
// declaration order.
func (s *Snapshot) EdgesOutOf(p PortRef) []Edge {
	var out []Edge
	for _, i := range s.outEdges[p] {
		if s.edges[i].Enabled {
			out = append(out, s.edges[i])
		}
	}
	return out
}

// SortedNodeIDs returns every node id in lexical order. Used by passes
// that must iterate nodes deterministically but have no natural order of
// their own.
func (s *Snapshot) SortedNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(s.nodes))
	for _, n := range s.nodes {
		ids = append(ids, n.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
