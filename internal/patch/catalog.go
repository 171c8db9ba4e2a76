package patch

import "github.com/waveline/strobe/internal/ctype"

// Spec constrains one axis of one port in a block declaration.
//
// Fixed, when resolved, pins the axis to a value for every node of the
// block kind. Group, when non-empty, makes the axis share one variable
// with every other port of the same node whose spec names the same group;
// this is how a block declares "inputs and output have the same payload"
// without fixing which. A zero Spec leaves the port its own variable.
type Spec[V comparable] struct {
	Fixed ctype.Axis[V]
	Group string
}

// FixedSpec pins an axis to v.
func FixedSpec[V comparable](v V) Spec[V] { return Spec[V]{Fixed: ctype.Fixed(v)} }

// GroupSpec couples an axis to the named per-node variable group.
func GroupSpec[V comparable](group string) Spec[V] { return Spec[V]{Group: group} }

// PortSpec declares one port of a block kind.
type PortSpec struct {
	Name     string
	Payload  Spec[ctype.Payload]
	Card     Spec[ctype.Cardinality]
	Temporal Spec[ctype.Temporality]
	Bind     Spec[ctype.Binding]

	// Variadic ports expand into a fixed port set (name[0..n-1]) during
	// normalization, sized by connected edge count.
	Variadic bool

	// Latched inputs are read only by the block's Phase-2 state write;
	// nothing the block outputs this frame depends on them. An edge into
	// a latched input is not a within-frame dependency, which is what
	// makes a feedback loop through it schedulable.
	Latched bool

	// Default is the canonical default value materialized for an
	// unconnected input, one float64 per payload stride lane. A nil
	// Default means all-zero lanes.
	Default []float64
}

// SeedResolution is a partial type resolution a block contributes for one
// of its own ports at solve time. Blocks that bind dataflow width use
// this: an array block resolves its output cardinality to many(self),
// which no static declaration can express.
type SeedResolution struct {
	Port   string
	Output bool
	Type   ctype.Type
}

// StateDecl declares one persistent state cell of a stateful block.
type StateDecl struct {
	Name string
	// PerElement state is keyed by instance element rather than held as
	// a single scalar cell.
	PerElement bool
	// Default per stride lane; nil means zero.
	Default []float64
}

// CompositeDef is the internal subgraph of a composite (grouped) block.
// Inner node ids are local; expansion remaps them to be unique per
// expansion site.
type CompositeDef struct {
	Nodes []Node
	Edges []Edge
	// InputBind maps each outer input port name to the inner input
	// ports that receive its value (fan-in: one outer input may feed
	// several inner ports). OutputBind maps each outer output port name
	// to the inner output port that produces it.
	InputBind  map[string][]PortRef
	OutputBind map[string]PortRef
}

// BlockDecl is the catalog's contract for one block kind. It is
// declarative: everything the compiler needs short of the lowering
// function itself, which is registered separately (see internal/blocks).
type BlockDecl struct {
	Kind    string
	Inputs  []PortSpec
	Outputs []PortSpec

	Stateful           bool
	CardinalityGeneric bool
	PayloadGeneric     bool

	States []StateDecl

	// Composite is non-nil for grouped blocks; the normalizer expands
	// them away before the solver runs.
	Composite *CompositeDef

	// Seed contributes per-node partial resolutions, unified into the
	// node's port types before solving. May be nil.
	Seed func(n *Node) []SeedResolution

	// DeclaresInstance reports the instance an array-like node declares,
	// if any. May be nil.
	DeclaresInstance func(n *Node) (Instance, bool)
}

// Input returns the named input port spec.
func (d *BlockDecl) Input(name string) (*PortSpec, bool) {
	for i := range d.Inputs {
		if d.Inputs[i].Name == name {
			return &d.Inputs[i], true
		}
	}
	return nil, false
}

// Output returns the named output port spec.
func (d *BlockDecl) Output(name string) (*PortSpec, bool) {
	for i := range d.Outputs {
		if d.Outputs[i].Name == name {
			return &d.Outputs[i], true
		}
	}
	return nil, false
}

// Catalog is the external block-catalog collaborator as the compiler
// sees it.
type Catalog interface {
	// Decl returns the declaration for a block kind.
	Decl(kind string) (*BlockDecl, bool)

	// AdapterFor returns the adapter block kind converting one payload
	// to another, if a conversion rule is registered.
	AdapterFor(from, to ctype.Payload) (string, bool)
}
