package lower

import (
	"fmt"

	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/patch"
	"github.com/waveline/strobe/internal/solve"
)

// Func is a block's lowering function. It consumes resolved types and
// instance context through the Ctx and emits expressions, steps, and
// state slots for one node.
type Func func(ctx *Ctx) error

// LookupFunc resolves a block kind to its lowering function.
type LookupFunc func(kind string) (Func, bool)

// Build lowers a normalized, typed patch into a Program. order must be
// the Phase-1 evaluation order from depgraph; types the solver's total
// port mapping. Diagnostics are collected per node; a failing node does
// not stop the remaining nodes from lowering.
func Build(snap *patch.Snapshot, types map[solve.PortKey]ctype.Concrete, order []patch.NodeID, lowerFor LookupFunc) (*Program, patch.DiagList) {
	b := &builder{
		snap:  snap,
		types: types,
		prog: &Program{
			StableIDs: make(map[string]StateID),
		},
		portSlot: make(map[solve.PortKey]SlotID),
		portExpr: make(map[solve.PortKey]ExprID),
	}

	for _, inst := range snap.Instances() {
		b.prog.Instances = append(b.prog.Instances, InstanceInfo{
			ID:        inst.ID,
			Count:     inst.Count,
			Dynamic:   inst.Dynamic,
			CountSlot: -1,
		})
	}

	for _, id := range order {
		n, ok := snap.Node(id)
		if !ok {
			continue
		}
		f, ok := lowerFor(n.Block)
		if !ok {
			b.diags = append(b.diags, patch.Diagnostic{
				Code:    patch.CodeLowering,
				Node:    n.ID,
				Message: fmt.Sprintf("block kind %q has no lowering", n.Block),
			})
			continue
		}
		ctx := &Ctx{b: b, node: n}
		if err := f(ctx); err != nil {
			b.diags = append(b.diags, patch.Diagnostic{
				Code:    patch.CodeLowering,
				Node:    n.ID,
				Message: err.Error(),
			})
		}
	}

	// All Phase-1 values exist now; resolve deferred state writes, in
	// emission (node) order. Each write sources a slot computed during
	// Phase 1: either a producer's output slot directly, or a fresh slot
	// evaluated at the tail of Phase 1 for computed writes. The write
	// step itself always lands in Phase 2.
	for _, w := range b.pendingWrites {
		slot, err := b.resolveWrite(w)
		if err != nil {
			b.diags = append(b.diags, patch.Diagnostic{
				Code:    patch.CodeLowering,
				Node:    w.node.ID,
				Message: fmt.Sprintf("state write: %v", err),
			})
			continue
		}
		info := b.prog.States[w.state]
		kind := StepWriteStateScalar
		if info.PerElement {
			kind = StepWriteStateField
		}
		b.prog.Phase2 = append(b.prog.Phase2, Step{
			Kind:     kind,
			Slot:     slot,
			State:    w.state,
			Instance: info.Instance,
			Node:     w.node.ID,
		})
	}

	hash, err := b.prog.computeHash()
	if err != nil {
		panic(fmt.Sprintf("lower: program not canonically hashable: %v", err))
	}
	b.prog.Hash = hash
	return b.prog, b.diags.Sorted()
}

type pendingWrite struct {
	node  *patch.Node
	state StateID
	// Exactly one of port / deferred is set.
	port     string
	deferred func(*Ctx) (ExprID, error)
}

// resolveWrite finds or builds the Phase-1 slot a state write sources.
func (b *builder) resolveWrite(w pendingWrite) (SlotID, error) {
	if w.deferred == nil {
		e, err := b.inputExpr(w.node, w.port)
		if err != nil {
			return 0, err
		}
		src := b.prog.Exprs[e]
		if src.Kind != ExprSlot {
			// State writes read already-computed slots, never evaluate.
			panic(fmt.Sprintf("lower: state write for %s.%s does not source a slot", w.node.ID, w.port))
		}
		return src.Slot, nil
	}

	e, err := w.deferred(&Ctx{b: b, node: w.node})
	if err != nil {
		return 0, err
	}
	info := b.prog.States[w.state]
	slot := b.allocSlot(info.Stride, info.Instance)
	kind := StepEval
	if info.PerElement {
		kind = StepMaterializeField
	}
	b.prog.Phase1 = append(b.prog.Phase1, Step{
		Kind:     kind,
		Expr:     e,
		Slot:     slot,
		Instance: info.Instance,
		Node:     w.node.ID,
	})
	return slot, nil
}

type builder struct {
	snap  *patch.Snapshot
	types map[solve.PortKey]ctype.Concrete
	prog  *Program

	portSlot map[solve.PortKey]SlotID
	portExpr map[solve.PortKey]ExprID

	pendingWrites []pendingWrite
	diags         patch.DiagList
}

func (b *builder) addExpr(e Expr) ExprID {
	id := ExprID(len(b.prog.Exprs))
	b.prog.Exprs = append(b.prog.Exprs, e)
	return id
}

func (b *builder) allocSlot(stride int, inst ctype.InstanceID) SlotID {
	id := SlotID(len(b.prog.Slots))
	b.prog.Slots = append(b.prog.Slots, SlotInfo{Stride: stride, Instance: inst})
	return id
}

// inputExpr returns the slot-read expression for the producer feeding
// the given input port. Normalized patches have exactly one producer per
// input.
func (b *builder) inputExpr(n *patch.Node, port string) (ExprID, error) {
	edges := b.snap.EdgesInto(patch.PortRef{Node: n.ID, Port: port})
	if len(edges) == 0 {
		return 0, fmt.Errorf("input %s.%s has no producer after normalization", n.ID, port)
	}
	key := solve.PortKey{Node: edges[0].From.Node, Port: edges[0].From.Port, Output: true}
	e, ok := b.portExpr[key]
	if !ok {
		return 0, fmt.Errorf("producer %s not lowered before consumer %s.%s", key, n.ID, port)
	}
	return e, nil
}

// Ctx is the lowering context for one node.
type Ctx struct {
	b    *builder
	node *patch.Node
}

// Node returns the node being lowered.
func (c *Ctx) Node() *patch.Node { return c.node }

// InType returns the resolved type of an input port.
func (c *Ctx) InType(port string) (ctype.Concrete, error) {
	t, ok := c.b.types[solve.PortKey{Node: c.node.ID, Port: port}]
	if !ok {
		return ctype.Concrete{}, fmt.Errorf("input %s.%s has no resolved type", c.node.ID, port)
	}
	return t, nil
}

// OutType returns the resolved type of an output port.
func (c *Ctx) OutType(port string) (ctype.Concrete, error) {
	t, ok := c.b.types[solve.PortKey{Node: c.node.ID, Port: port, Output: true}]
	if !ok {
		return ctype.Concrete{}, fmt.Errorf("output %s.%s has no resolved type", c.node.ID, port)
	}
	return t, nil
}

// In returns the expression reading the named input's producer slot.
func (c *Ctx) In(port string) (ExprID, error) {
	return c.b.inputExpr(c.node, port)
}

// Out returns the expression reading one of the node's own outputs,
// after SetOutput has bound it. Deferred state writes use this to
// source a value the node already computed.
func (c *Ctx) Out(port string) (ExprID, error) {
	key := solve.PortKey{Node: c.node.ID, Port: port, Output: true}
	e, ok := c.b.portExpr[key]
	if !ok {
		return 0, fmt.Errorf("output %s.%s not bound", c.node.ID, port)
	}
	return e, nil
}

// VariadicIns returns the producer expressions of every expanded slot
// of a variadic input, in slot order. An unconnected variadic port
// yields an empty slice, not an error.
func (c *Ctx) VariadicIns(base string) ([]ExprID, error) {
	var out []ExprID
	for i := 0; ; i++ {
		name := patch.VariadicPortName(base, i)
		if len(c.b.snap.EdgesInto(patch.PortRef{Node: c.node.ID, Port: name})) == 0 {
			return out, nil
		}
		e, err := c.b.inputExpr(c.node, name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// InRole returns the role of the edge feeding the named input. Blocks
// use this to tell a user wire from a materialized default.
func (c *Ctx) InRole(port string) (patch.EdgeRole, error) {
	edges := c.b.snap.EdgesInto(patch.PortRef{Node: c.node.ID, Port: port})
	if len(edges) == 0 {
		return 0, fmt.Errorf("input %s.%s has no producer after normalization", c.node.ID, port)
	}
	return edges[0].Role, nil
}

// Const appends a literal expression.
func (c *Ctx) Const(lanes ...float64) ExprID {
	return c.b.addExpr(Expr{Kind: ExprConst, Const: lanes, Stride: len(lanes)})
}

// Input appends an external-input read (time, pointer position, ...).
func (c *Ctx) Input(name string, stride int) ExprID {
	return c.b.addExpr(Expr{Kind: ExprInput, Input: name, Stride: stride})
}

// Kernel appends a kernel application. The result stride follows the
// first argument.
func (c *Ctx) Kernel(op KernelOp, args ...ExprID) ExprID {
	if len(args) == 0 {
		panic("lower: kernel with no arguments")
	}
	return c.b.addExpr(Expr{
		Kind:   ExprKernel,
		Op:     op,
		Args:   args,
		Stride: c.b.prog.Exprs[args[0]].Stride,
	})
}

// Pack concatenates scalar expressions into one wider value (two floats
// into a vec2, four into a color).
func (c *Ctx) Pack(args ...ExprID) ExprID {
	return c.b.addExpr(Expr{
		Kind:   ExprKernel,
		Op:     OpPack,
		Args:   args,
		Stride: len(args),
	})
}

// ElemIndex appends the per-element index expression for an instance.
func (c *Ctx) ElemIndex(inst ctype.InstanceID) ExprID {
	return c.b.addExpr(Expr{Kind: ExprElemIndex, Instance: inst, Stride: 1})
}

// ElemCount appends the element-count expression for an instance.
func (c *Ctx) ElemCount(inst ctype.InstanceID) ExprID {
	return c.b.addExpr(Expr{Kind: ExprElemCount, Instance: inst, Stride: 1})
}

// ScalarState declares a scalar persistent state cell and returns its
// slot plus the expression reading its previous-frame value.
func (c *Ctx) ScalarState(name string, stride int, def []float64) (StateID, ExprID) {
	id := c.declareState(StateInfo{
		StableID: patch.StableStateID(c.node, name),
		Stride:   stride,
		Default:  def,
	})
	return id, c.b.addExpr(Expr{Kind: ExprState, State: id, Stride: stride})
}

// FieldState declares a per-element persistent state cell aligned to an
// instance and returns its slot plus the previous-frame read expression.
func (c *Ctx) FieldState(name string, stride int, inst ctype.InstanceID, def []float64) (StateID, ExprID) {
	id := c.declareState(StateInfo{
		StableID:   patch.StableStateID(c.node, name),
		Stride:     stride,
		PerElement: true,
		Instance:   inst,
		Default:    def,
	})
	return id, c.b.addExpr(Expr{Kind: ExprStateElem, State: id, Instance: inst, Stride: stride})
}

func (c *Ctx) declareState(info StateInfo) StateID {
	if id, dup := c.b.prog.StableIDs[info.StableID]; dup {
		// A collision would make hot-swap migration ambiguous. Fail the
		// compile; a live session keeps its current program.
		c.b.diags = append(c.b.diags, patch.Diagnostic{
			Code:    patch.CodeLowering,
			Node:    c.node.ID,
			Message: fmt.Sprintf("state identity %q already declared; migration would be ambiguous", info.StableID),
		})
		return id
	}
	id := StateID(len(c.b.prog.States))
	c.b.prog.States = append(c.b.prog.States, info)
	c.b.prog.StableIDs[info.StableID] = id
	return id
}

// WriteState defers a Phase-2 scalar or field state write sourcing the
// named input port. The write resolves after every node has lowered, so
// feedback producers downstream of this node in patch order still work.
func (c *Ctx) WriteState(state StateID, fromPort string) {
	c.b.pendingWrites = append(c.b.pendingWrites, pendingWrite{
		node:  c.node,
		state: state,
		port:  fromPort,
	})
}

// WriteStateExpr defers a Phase-2 state write whose value is computed
// by an expression built after all nodes have lowered. The builder
// evaluates it into a fresh slot at the tail of Phase 1, where every
// producer slot already exists.
func (c *Ctx) WriteStateExpr(state StateID, build func(*Ctx) (ExprID, error)) {
	c.b.pendingWrites = append(c.b.pendingWrites, pendingWrite{
		node:     c.node,
		state:    state,
		deferred: build,
	})
}

// SetOutput evaluates e into a fresh slot bound to the named output
// port. Instance-aligned outputs materialize as fields; everything else
// is a plain eval step.
func (c *Ctx) SetOutput(port string, e ExprID) error {
	return c.setOutput(port, e, nil)
}

// SetOutputSmoothed is SetOutput plus per-element continuity: the slot
// is smoothed through the instance's gauges after materialization, with
// the given retirement policy for disappeared elements.
func (c *Ctx) SetOutputSmoothed(port string, e ExprID, policy ContinuityPolicy) error {
	return c.setOutput(port, e, &policy)
}

func (c *Ctx) setOutput(port string, e ExprID, policy *ContinuityPolicy) error {
	t, err := c.OutType(port)
	if err != nil {
		return err
	}
	var inst ctype.InstanceID
	kind := StepEval
	if t.Card.Kind == ctype.CardMany {
		inst = t.Card.Instance
		kind = StepMaterializeField
	}
	slot := c.b.allocSlot(t.Stride(), inst)
	c.b.prog.Phase1 = append(c.b.prog.Phase1, Step{
		Kind:     kind,
		Expr:     e,
		Slot:     slot,
		Instance: inst,
		Node:     c.node.ID,
	})

	if policy != nil {
		if inst == "" {
			return fmt.Errorf("continuity on %s.%s: output is not instance-aligned", c.node.ID, port)
		}
		// Tag carries the port so two smoothed outputs of one node keep
		// separate gauges.
		c.b.prog.Phase1 = append(c.b.prog.Phase1, Step{
			Kind:     StepApplyContinuity,
			Slot:     slot,
			Instance: inst,
			Policy:   *policy,
			Tag:      port,
			Node:     c.node.ID,
		})
	}

	key := solve.PortKey{Node: c.node.ID, Port: port, Output: true}
	c.b.portSlot[key] = slot
	c.b.portExpr[key] = c.b.addExpr(Expr{
		Kind:     ExprSlot,
		Slot:     slot,
		Instance: inst,
		Stride:   t.Stride(),
	})
	return nil
}

// DeclareCount binds an instance's per-frame element count to e.
func (c *Ctx) DeclareCount(inst ctype.InstanceID, e ExprID) error {
	slot := c.b.allocSlot(1, "")
	c.b.prog.Phase1 = append(c.b.prog.Phase1, Step{
		Kind: StepEval,
		Expr: e,
		Slot: slot,
		Node: c.node.ID,
	})
	for i := range c.b.prog.Instances {
		if c.b.prog.Instances[i].ID == inst {
			c.b.prog.Instances[i].CountSlot = slot
			c.b.prog.Instances[i].Dynamic = true
			return nil
		}
	}
	return fmt.Errorf("instance %q not declared in snapshot", inst)
}

// EmitRender exposes the named input's slot as a render buffer.
func (c *Ctx) EmitRender(tag, fromPort string) error {
	e, err := c.In(fromPort)
	if err != nil {
		return err
	}
	src := c.b.prog.Exprs[e]
	if src.Kind != ExprSlot {
		panic(fmt.Sprintf("lower: render emit for %s.%s does not source a slot", c.node.ID, fromPort))
	}
	c.b.prog.Phase1 = append(c.b.prog.Phase1, Step{
		Kind:     StepRenderEmit,
		Slot:     src.Slot,
		Instance: src.Instance,
		Tag:      tag,
		Node:     c.node.ID,
	})
	return nil
}

// EmitEvent appends a discrete edge-detection step reading the named
// input's producer slot. The event fires on frames where the sample
// crosses from <=0.5 to >0.5 relative to the previous frame's sample
// held in prev; the 0-or-1 fired flag lands in a fresh slot bound to
// the given output port.
func (c *Ctx) EmitEvent(tag, fromPort, outPort string, prev StateID) error {
	e, err := c.In(fromPort)
	if err != nil {
		return err
	}
	src := c.b.prog.Exprs[e]
	if src.Kind != ExprSlot {
		panic(fmt.Sprintf("lower: event sample for %s.%s does not source a slot", c.node.ID, fromPort))
	}
	flag := c.b.allocSlot(1, "")
	c.b.prog.Phase1 = append(c.b.prog.Phase1, Step{
		Kind:  StepEvalEvent,
		Src:   src.Slot,
		Dst:   flag,
		State: prev,
		Tag:   tag,
		Node:  c.node.ID,
	})
	key := solve.PortKey{Node: c.node.ID, Port: outPort, Output: true}
	c.b.portSlot[key] = flag
	c.b.portExpr[key] = c.b.addExpr(Expr{Kind: ExprSlot, Slot: flag, Stride: 1})
	return nil
}
