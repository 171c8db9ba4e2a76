package solve

import (
	"fmt"

	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/patch"
)

// PortKey identifies one port, direction included, in solver output.
type PortKey struct {
	Node   patch.NodeID `json:"node"`
	Port   string       `json:"port"`
	Output bool         `json:"output"`
}

func (k PortKey) String() string {
	dir := "in"
	if k.Output {
		dir = "out"
	}
	return fmt.Sprintf("%s.%s(%s)", k.Node, k.Port, dir)
}

// Result is the solver's total mapping from ports to concrete types,
// plus any conflicts found. Types is complete even when Diags is
// non-empty: ports touched by a conflict keep the first value that
// reached them so downstream diagnostics stay readable.
type Result struct {
	Types map[PortKey]ctype.Concrete
	Diags patch.DiagList
}

// portVars holds the six domain variables of one port.
type portVars struct {
	payload     varID
	card        varID
	temporal    varID
	bind        varID
	perspective varID
	branch      varID
}

type solver struct {
	snap *patch.Snapshot
	cat  patch.Catalog

	payload     *domain[ctype.Payload]
	card        *domain[ctype.Cardinality]
	temporal    *domain[ctype.Temporality]
	bind        *domain[ctype.Binding]
	perspective *domain[ctype.Perspective]
	branch      *domain[ctype.Branch]

	ports map[PortKey]portVars
	order []PortKey // allocation order, for deterministic extraction
	diags patch.DiagList
}

// Solve resolves every port of the normalized snapshot to a concrete
// type. The snapshot must already be normalized: composites expanded,
// defaults materialized, adapters inserted, variadics resolved.
func Solve(snap *patch.Snapshot, cat patch.Catalog) *Result {
	s := &solver{
		snap:        snap,
		cat:         cat,
		payload:     newDomain[ctype.Payload](ctype.AxisPayload),
		card:        newDomain[ctype.Cardinality](ctype.AxisCardinality),
		temporal:    newDomain[ctype.Temporality](ctype.AxisTemporality),
		bind:        newDomain[ctype.Binding](ctype.AxisBinding),
		perspective: newDomain[ctype.Perspective](ctype.AxisPerspective),
		branch:      newDomain[ctype.Branch](ctype.AxisBranch),
		ports:       make(map[PortKey]portVars),
	}

	// Pass 1: allocate variables and apply declaration constraints.
	for i := range snap.Nodes() {
		s.allocNode(&snap.Nodes()[i])
	}

	// Pass 2: per-node seed resolutions (instance-bound cardinality etc).
	for i := range snap.Nodes() {
		s.seedNode(&snap.Nodes()[i])
	}

	// Pass 3: edges issue union requests across every domain.
	for _, e := range snap.Edges() {
		if e.Enabled {
			s.unionEdge(e)
		}
	}

	// Defaults are applied exactly once, after all unification requests.
	s.temporal.defaultUnresolved(ctype.Continuous)
	s.bind.defaultUnresolved(ctype.Unbound())
	s.perspective.defaultUnresolved(ctype.DefaultPerspective)
	s.branch.defaultUnresolved(ctype.DefaultBranch)
	s.card.defaultUnresolved(ctype.One())
	// Payload has no source-wide default: an unresolved payload is an
	// error, reported during extraction.

	return s.extract()
}

// allocNode creates the port variables for one node, honoring coupling
// groups, and applies fixed axis values from the declaration.
func (s *solver) allocNode(n *patch.Node) {
	decl, ok := s.cat.Decl(n.Block)
	if !ok {
		s.diags = append(s.diags, patch.Diagnostic{
			Code:    patch.CodeUnknownBlock,
			Node:    n.ID,
			Message: fmt.Sprintf("block kind %q is not in the catalog", n.Block),
		})
		return
	}

	type groups struct {
		payload  map[string]varID
		card     map[string]varID
		temporal map[string]varID
		bind     map[string]varID
	}
	g := groups{
		payload:  map[string]varID{},
		card:     map[string]varID{},
		temporal: map[string]varID{},
		bind:     map[string]varID{},
	}

	allocPort := func(spec *patch.PortSpec, output bool) {
		ref := patch.PortRef{Node: n.ID, Port: spec.Name}
		key := PortKey{Node: n.ID, Port: spec.Name, Output: output}

		pv := portVars{
			payload:     allocGrouped(s.payload, g.payload, spec.Payload, ref),
			card:        allocGrouped(s.card, g.card, spec.Card, ref),
			temporal:    allocGrouped(s.temporal, g.temporal, spec.Temporal, ref),
			bind:        allocGrouped(s.bind, g.bind, spec.Bind, ref),
			perspective: s.perspective.alloc(ref, ctype.Var[ctype.Perspective]()),
			branch:      s.branch.alloc(ref, ctype.Var[ctype.Branch]()),
		}
		s.ports[key] = pv
		s.order = append(s.order, key)
	}

	inputs := patch.ExpandedInputs(s.snap, n, decl)
	for i := range inputs {
		allocPort(&inputs[i], false)
	}
	for i := range decl.Outputs {
		allocPort(&decl.Outputs[i], true)
	}
}

// allocGrouped allocates (or reuses) the variable for one axis of one
// port and applies the declaration's fixed value if any.
func allocGrouped[V comparable](d *domain[V], group map[string]varID, spec patch.Spec[V], ref patch.PortRef) varID {
	var id varID
	if spec.Group != "" {
		existing, ok := group[spec.Group]
		if !ok {
			existing = d.alloc(ref, ctype.Var[V]())
			group[spec.Group] = existing
		}
		id = existing
	} else {
		id = d.alloc(ref, ctype.Var[V]())
	}
	if spec.Fixed.Resolved() {
		// Declaration-fixed values cannot conflict at allocation time:
		// the variable is fresh or group-shared within one declaration,
		// and a declaration disagreeing with itself is a catalog bug.
		if c := d.resolve(id, spec.Fixed.Value(), ref); c != nil {
			panic(fmt.Sprintf("solve: catalog declaration conflicts with itself at %s: %v vs %v", ref, c.a, c.b))
		}
	}
	return id
}

// seedNode applies a block's per-node partial resolutions.
func (s *solver) seedNode(n *patch.Node) {
	decl, ok := s.cat.Decl(n.Block)
	if !ok || decl.Seed == nil {
		return
	}
	for _, seed := range decl.Seed(n) {
		key := PortKey{Node: n.ID, Port: seed.Port, Output: seed.Output}
		pv, ok := s.ports[key]
		if !ok {
			panic(fmt.Sprintf("solve: seed for undeclared port %s", key))
		}
		ref := patch.PortRef{Node: n.ID, Port: seed.Port}
		s.applyPartial(pv, seed.Type, ref)
	}
}

// applyPartial resolves every resolved axis of t onto the port's
// variables.
func (s *solver) applyPartial(pv portVars, t ctype.Type, ref patch.PortRef) {
	if t.Payload.Resolved() {
		s.report(s.payload.resolve(pv.payload, t.Payload.Value(), ref))
	}
	if t.Extent.Card.Resolved() {
		s.report(s.card.resolve(pv.card, t.Extent.Card.Value(), ref))
	}
	if t.Extent.Temporal.Resolved() {
		s.report(s.temporal.resolve(pv.temporal, t.Extent.Temporal.Value(), ref))
	}
	if t.Extent.Bind.Resolved() {
		s.report(s.bind.resolve(pv.bind, t.Extent.Bind.Value(), ref))
	}
	if t.Extent.Perspective.Resolved() {
		s.report(s.perspective.resolve(pv.perspective, t.Extent.Perspective.Value(), ref))
	}
	if t.Extent.Branch.Resolved() {
		s.report(s.branch.resolve(pv.branch, t.Extent.Branch.Value(), ref))
	}
}

// unionEdge unions the two endpoint ports of an edge across all domains.
func (s *solver) unionEdge(e patch.Edge) {
	from, okF := s.ports[PortKey{Node: e.From.Node, Port: e.From.Port, Output: true}]
	to, okT := s.ports[PortKey{Node: e.To.Node, Port: e.To.Port, Output: false}]
	if !okF {
		s.diags = append(s.diags, patch.Diagnostic{
			Code: patch.CodeBadPort, Node: e.From.Node, Port: e.From.Port,
			Message: "edge source port is not declared by its block",
		})
		return
	}
	if !okT {
		s.diags = append(s.diags, patch.Diagnostic{
			Code: patch.CodeBadPort, Node: e.To.Node, Port: e.To.Port,
			Message: "edge target port is not declared by its block",
		})
		return
	}
	s.report(s.payload.union(from.payload, to.payload))
	s.report(s.card.union(from.card, to.card))
	s.report(s.temporal.union(from.temporal, to.temporal))
	s.report(s.bind.union(from.bind, to.bind))
	s.report(s.perspective.union(from.perspective, to.perspective))
	s.report(s.branch.union(from.branch, to.branch))
}

func (s *solver) report(c *conflict) {
	if c == nil {
		return
	}
	s.diags = append(s.diags, patch.Diagnostic{
		Code:    patch.CodeAxisConflict,
		Node:    c.atA.Node,
		Port:    c.atA.Port,
		Other:   c.atB.Node,
		OtherPt: c.atB.Port,
		Message: fmt.Sprintf("%s axis conflict: %s vs %s", c.axis, c.a, c.b),
	})
}

// extract reads every port's concrete type out of the union-find state.
func (s *solver) extract() *Result {
	res := &Result{Types: make(map[PortKey]ctype.Concrete, len(s.ports))}

	for _, key := range s.order {
		pv := s.ports[key]
		var c ctype.Concrete

		p, ok := s.payload.valueOf(pv.payload)
		if !ok {
			s.diags = append(s.diags, patch.Diagnostic{
				Code:    patch.CodeUnresolvedAxis,
				Node:    key.Node,
				Port:    key.Port,
				Message: "payload never resolved and has no default",
			})
			continue
		}
		c.Payload = p
		// The remaining axes were defaulted; valueOf cannot fail.
		c.Card, _ = s.card.valueOf(pv.card)
		c.Temporal, _ = s.temporal.valueOf(pv.temporal)
		c.Bind, _ = s.bind.valueOf(pv.bind)
		c.Perspective, _ = s.perspective.valueOf(pv.perspective)
		c.Branch, _ = s.branch.valueOf(pv.branch)
		res.Types[key] = c
	}

	res.Diags = s.diags.Sorted()
	return res
}
