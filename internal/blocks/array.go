package blocks

import (
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// registerArrays adds the blocks that declare and consume instances.
func registerArrays(r *Registry) {
	// array declares an instance named after the node. Its element count
	// is the "count" parameter, or per-frame the "count" input when a
	// user wire feeds it. Outputs: "index" (each element's index) and
	// "size" (the count, for downstream arithmetic).
	r.Register(&patch.BlockDecl{
		Kind: "array",
		Inputs: []patch.PortSpec{{
			Name:    "count",
			Payload: patch.FixedSpec(ctype.PayloadFloat),
			Card:    patch.FixedSpec(ctype.One()),
		}},
		Outputs: []patch.PortSpec{
			{Name: "index", Payload: patch.FixedSpec(ctype.PayloadFloat)},
			{Name: "size", Payload: patch.FixedSpec(ctype.PayloadFloat), Card: patch.FixedSpec(ctype.One())},
		},
		Seed: func(n *patch.Node) []patch.SeedResolution {
			// The output cardinality many(self) depends on the node's
			// own identity; no static spec can say that.
			return []patch.SeedResolution{{
				Port:   "index",
				Output: true,
				Type:   ctype.OfCard(ctype.PayloadFloat, ctype.Many(ctype.InstanceID(n.ID))),
			}}
		},
		DeclaresInstance: func(n *patch.Node) (patch.Instance, bool) {
			return patch.Instance{
				ID:         ctype.InstanceID(n.ID),
				DeclaredBy: n.ID,
				Count:      int(n.NumParamOr("count", 1)),
			}, true
		},
	}, func(c *lower.Ctx) error {
		inst := ctype.InstanceID(c.Node().ID)
		role, err := c.InRole("count")
		if err != nil {
			return err
		}
		if role != patch.EdgeDefault {
			e, err := c.In("count")
			if err != nil {
				return err
			}
			if err := c.DeclareCount(inst, e); err != nil {
				return err
			}
		}
		if err := c.SetOutput("index", c.ElemIndex(inst)); err != nil {
			return err
		}
		return c.SetOutput("size", c.ElemCount(inst))
	})

	// layout-line places elements along a line: element i lands at
	// (origin_x + i*spacing, origin_y). Positions are smoothed through
	// continuity gauges so count changes and hot swaps glide rather
	// than snap.
	r.Register(&patch.BlockDecl{
		Kind: "layout-line",
		Inputs: []patch.PortSpec{{
			Name:    "index",
			Payload: patch.FixedSpec(ctype.PayloadFloat),
			Card:    patch.GroupSpec[ctype.Cardinality]("N"),
		}},
		Outputs: []patch.PortSpec{{
			Name:    "pos",
			Payload: patch.FixedSpec(ctype.PayloadVec2),
			Card:    patch.GroupSpec[ctype.Cardinality]("N"),
		}},
		CardinalityGeneric: true,
	}, func(c *lower.Ctx) error {
		idx, err := c.In("index")
		if err != nil {
			return err
		}
		n := c.Node()
		x := c.Kernel(lower.OpAdd,
			c.Const(n.NumParamOr("origin_x", 0)),
			c.Kernel(lower.OpMul, idx, c.Const(n.NumParamOr("spacing", 1))),
		)
		pos := c.Pack(x, c.Const(n.NumParamOr("origin_y", 0)))
		policy := lower.RetireImmediate
		if p, ok := n.Params["retire"]; ok && p.Kind == "str" && p.Str == "decay" {
			policy = lower.RetireDecay
		}
		return c.SetOutputSmoothed("pos", pos, policy)
	})
}
