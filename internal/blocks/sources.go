package blocks

import (
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// registerSources adds the value-producing blocks: literals, the
// materialized default source, and external inputs.
func registerSources(r *Registry) {
	// The default source is fully generic: its output takes whatever
	// type flows back through the edge it was materialized for. The
	// constant lanes come from the "value" parameter the normalizer
	// copies out of the port spec.
	r.Register(&patch.BlockDecl{
		Kind:           patch.BlockDefaultSource,
		Outputs:        []patch.PortSpec{{Name: "out"}},
		PayloadGeneric: true,
	}, func(c *lower.Ctx) error {
		t, err := c.OutType("out")
		if err != nil {
			return err
		}
		return c.SetOutput("out", c.Const(paramLanes(c.Node(), "value", t.Stride())...))
	})

	r.Register(&patch.BlockDecl{
		Kind: "number",
		Outputs: []patch.PortSpec{{
			Name:    "out",
			Payload: patch.FixedSpec(ctype.PayloadFloat),
			Card:    patch.FixedSpec(ctype.One()),
		}},
	}, func(c *lower.Ctx) error {
		return c.SetOutput("out", c.Const(c.Node().NumParamOr("value", 0)))
	})

	r.Register(&patch.BlockDecl{
		Kind: "color",
		Outputs: []patch.PortSpec{{
			Name:    "out",
			Payload: patch.FixedSpec(ctype.PayloadColor),
			Card:    patch.FixedSpec(ctype.One()),
		}},
	}, func(c *lower.Ctx) error {
		return c.SetOutput("out", c.Const(paramLanes(c.Node(), "value", 4)...))
	})

	// External inputs sampled once at frame start.
	r.Register(&patch.BlockDecl{
		Kind: "time",
		Outputs: []patch.PortSpec{{
			Name:    "out",
			Payload: patch.FixedSpec(ctype.PayloadFloat),
			Card:    patch.FixedSpec(ctype.One()),
		}},
	}, func(c *lower.Ctx) error {
		return c.SetOutput("out", c.Input("time", 1))
	})

	r.Register(&patch.BlockDecl{
		Kind: "pointer",
		Outputs: []patch.PortSpec{{
			Name:    "out",
			Payload: patch.FixedSpec(ctype.PayloadVec2),
			Card:    patch.FixedSpec(ctype.One()),
		}},
	}, func(c *lower.Ctx) error {
		return c.SetOutput("out", c.Input("pointer", 2))
	})
}
