package blocks

import (
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// registerStateful adds the blocks that carry persistent state across
// frames. All of them write their state in Phase 2. delay and accum
// consume their input only through that write, so their inputs are
// latched and feedback through them is legal; pulse samples its input
// within the frame, so a loop through pulse alone stays illegal.
func registerStateful(r *Registry) {
	// delay emits last frame's input. On the first frame it emits its
	// "initial" parameter (zero lanes when absent).
	r.Register(&patch.BlockDecl{
		Kind:               "delay",
		Inputs:             []patch.PortSpec{latched(groupPort("in"))},
		Outputs:            []patch.PortSpec{groupPort("out")},
		PayloadGeneric:     true,
		CardinalityGeneric: true,
		Stateful:           true,
		States:             []patch.StateDecl{{Name: "prev"}},
	}, func(c *lower.Ctx) error {
		t, err := c.OutType("out")
		if err != nil {
			return err
		}
		def := paramLanes(c.Node(), "initial", t.Stride())
		var (
			id   lower.StateID
			prev lower.ExprID
		)
		if t.Card.Kind == ctype.CardMany {
			id, prev = c.FieldState("prev", t.Stride(), t.Card.Instance, def)
		} else {
			id, prev = c.ScalarState("prev", t.Stride(), def)
		}
		if err := c.SetOutput("out", prev); err != nil {
			return err
		}
		c.WriteState(id, "in")
		return nil
	})

	// accum integrates its input: out = total, total' = total + in. The
	// output reads last frame's total, so feedback through accum really
	// is broken within a frame.
	r.Register(&patch.BlockDecl{
		Kind: "accum",
		Inputs: []patch.PortSpec{{
			Name:    "in",
			Payload: patch.FixedSpec(ctype.PayloadFloat),
			Card:    patch.GroupSpec[ctype.Cardinality]("N"),
			Latched: true,
		}},
		Outputs: []patch.PortSpec{{
			Name:    "out",
			Payload: patch.FixedSpec(ctype.PayloadFloat),
			Card:    patch.GroupSpec[ctype.Cardinality]("N"),
		}},
		CardinalityGeneric: true,
		Stateful:           true,
		States:             []patch.StateDecl{{Name: "total"}},
	}, func(c *lower.Ctx) error {
		t, err := c.OutType("out")
		if err != nil {
			return err
		}
		var (
			id   lower.StateID
			prev lower.ExprID
		)
		if t.Card.Kind == ctype.CardMany {
			id, prev = c.FieldState("total", 1, t.Card.Instance, nil)
		} else {
			id, prev = c.ScalarState("total", 1, nil)
		}
		if err := c.SetOutput("out", prev); err != nil {
			return err
		}
		// The input producer may lower after this node (feedback), so the
		// sum is built when the write resolves, at the tail of Phase 1.
		c.WriteStateExpr(id, func(c *lower.Ctx) (lower.ExprID, error) {
			in, err := c.In("in")
			if err != nil {
				return 0, err
			}
			return c.Kernel(lower.OpAdd, prev, in), nil
		})
		return nil
	})

	// pulse turns a continuous level into a discrete event stream: it
	// fires on frames where the input rises through 0.5. The "out" port
	// carries the fired flag for downstream discrete consumers.
	r.Register(&patch.BlockDecl{
		Kind: "pulse",
		Inputs: []patch.PortSpec{{
			Name:     "in",
			Payload:  patch.FixedSpec(ctype.PayloadFloat),
			Card:     patch.FixedSpec(ctype.One()),
			Temporal: patch.FixedSpec(ctype.Continuous),
		}},
		Outputs: []patch.PortSpec{{
			Name:     "out",
			Payload:  patch.FixedSpec(ctype.PayloadFloat),
			Card:     patch.FixedSpec(ctype.One()),
			Temporal: patch.FixedSpec(ctype.Discrete),
		}},
		Stateful: true,
		States:   []patch.StateDecl{{Name: "prev"}},
	}, func(c *lower.Ctx) error {
		id, _ := c.ScalarState("prev", 1, nil)
		tag := string(c.Node().ID)
		if p, ok := c.Node().Params["tag"]; ok && p.Kind == "str" {
			tag = p.Str
		}
		if err := c.EmitEvent(tag, "in", "out", id); err != nil {
			return err
		}
		c.WriteState(id, "in")
		return nil
	})
}
