package blocks

import (
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// registerAdapters adds the payload conversion blocks and their rules.
// The normalizer splices these in wherever an edge's declared payloads
// disagree and a rule exists for the pair.
func registerAdapters(r *Registry) {
	adapter := func(kind string, from, to ctype.Payload, f lower.Func) {
		r.Register(&patch.BlockDecl{
			Kind: kind,
			Inputs: []patch.PortSpec{{
				Name:    "in",
				Payload: patch.FixedSpec(from),
				Card:    patch.GroupSpec[ctype.Cardinality]("N"),
			}},
			Outputs: []patch.PortSpec{{
				Name:    "out",
				Payload: patch.FixedSpec(to),
				Card:    patch.GroupSpec[ctype.Cardinality]("N"),
			}},
			CardinalityGeneric: true,
		}, f)
		r.RegisterAdapter(from, to, kind)
	}

	// Ints and bools already live in float lanes; widening is a copy.
	passthrough := func(c *lower.Ctx) error {
		in, err := c.In("in")
		if err != nil {
			return err
		}
		return c.SetOutput("out", in)
	}
	adapter("int-to-float", ctype.PayloadInt, ctype.PayloadFloat, passthrough)
	adapter("bool-to-float", ctype.PayloadBool, ctype.PayloadFloat, passthrough)

	// float-to-int truncates toward negative infinity.
	adapter("float-to-int", ctype.PayloadFloat, ctype.PayloadInt, func(c *lower.Ctx) error {
		in, err := c.In("in")
		if err != nil {
			return err
		}
		return c.SetOutput("out", c.Kernel(lower.OpFloor, in))
	})

	// float-to-vec2 splats the scalar into both components.
	adapter("float-to-vec2", ctype.PayloadFloat, ctype.PayloadVec2, func(c *lower.Ctx) error {
		in, err := c.In("in")
		if err != nil {
			return err
		}
		return c.SetOutput("out", c.Pack(in, in))
	})

	// float-to-color produces an opaque grayscale.
	adapter("float-to-color", ctype.PayloadFloat, ctype.PayloadColor, func(c *lower.Ctx) error {
		in, err := c.In("in")
		if err != nil {
			return err
		}
		return c.SetOutput("out", c.Pack(in, in, in, c.Const(1)))
	})
}
