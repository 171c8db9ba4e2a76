package blocks

import (
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// registerMath adds the arithmetic blocks. Binary arithmetic is payload-
// and cardinality-generic: both operands and the result share one
// payload group and one cardinality group, so "add" works unchanged on
// floats, vec2 fields, or colors, lane-wise.
func registerMath(r *Registry) {
	binary := func(kind string, op lower.KernelOp) {
		r.Register(genericBinaryDecl(kind), func(c *lower.Ctx) error {
			a, err := c.In("a")
			if err != nil {
				return err
			}
			b, err := c.In("b")
			if err != nil {
				return err
			}
			return c.SetOutput("out", c.Kernel(op, a, b))
		})
	}
	binary("add", lower.OpAdd)
	binary("sub", lower.OpSub)
	binary("mul", lower.OpMul)
	binary("div", lower.OpDiv)
	binary("min", lower.OpMin)
	binary("max", lower.OpMax)

	unary := func(kind string, op lower.KernelOp, fixedFloat bool) {
		decl := &patch.BlockDecl{
			Kind:               kind,
			Inputs:             []patch.PortSpec{groupPort("in")},
			Outputs:            []patch.PortSpec{groupPort("out")},
			PayloadGeneric:     true,
			CardinalityGeneric: true,
		}
		if fixedFloat {
			decl.Inputs[0].Payload = patch.FixedSpec(ctype.PayloadFloat)
			decl.Outputs[0].Payload = patch.FixedSpec(ctype.PayloadFloat)
			decl.PayloadGeneric = false
		}
		r.Register(decl, func(c *lower.Ctx) error {
			in, err := c.In("in")
			if err != nil {
				return err
			}
			return c.SetOutput("out", c.Kernel(op, in))
		})
	}
	unary("neg", lower.OpNeg, false)
	unary("abs", lower.OpAbs, false)
	unary("floor", lower.OpFloor, false)
	unary("sin", lower.OpSin, true)
	unary("cos", lower.OpCos, true)

	// greater compares floats and yields 0 or 1.
	r.Register(&patch.BlockDecl{
		Kind: "greater",
		Inputs: []patch.PortSpec{
			{Name: "a", Payload: patch.FixedSpec(ctype.PayloadFloat), Card: patch.GroupSpec[ctype.Cardinality]("N")},
			{Name: "b", Payload: patch.FixedSpec(ctype.PayloadFloat), Card: patch.GroupSpec[ctype.Cardinality]("N")},
		},
		Outputs: []patch.PortSpec{
			{Name: "out", Payload: patch.FixedSpec(ctype.PayloadFloat), Card: patch.GroupSpec[ctype.Cardinality]("N")},
		},
		CardinalityGeneric: true,
	}, func(c *lower.Ctx) error {
		a, err := c.In("a")
		if err != nil {
			return err
		}
		b, err := c.In("b")
		if err != nil {
			return err
		}
		return c.SetOutput("out", c.Kernel(lower.OpGreater, a, b))
	})

	// sum folds a variable number of float inputs. Zero connected inputs
	// is not an error: the sum of nothing is 0.
	r.Register(&patch.BlockDecl{
		Kind: "sum",
		Inputs: []patch.PortSpec{{
			Name:     "in",
			Payload:  patch.FixedSpec(ctype.PayloadFloat),
			Card:     patch.GroupSpec[ctype.Cardinality]("N"),
			Variadic: true,
		}},
		Outputs: []patch.PortSpec{{
			Name:    "out",
			Payload: patch.FixedSpec(ctype.PayloadFloat),
			Card:    patch.GroupSpec[ctype.Cardinality]("N"),
		}},
		CardinalityGeneric: true,
	}, func(c *lower.Ctx) error {
		args, err := c.VariadicIns("in")
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return c.SetOutput("out", c.Const(0))
		}
		acc := args[0]
		for _, a := range args[1:] {
			acc = c.Kernel(lower.OpAdd, acc, a)
		}
		return c.SetOutput("out", acc)
	})

	// Field reductions: collapse an instance-aligned float field to one
	// value. The reduction of an empty field is the operation's zero.
	reduce := func(kind string, op lower.KernelOp) {
		r.Register(&patch.BlockDecl{
			Kind: kind,
			Inputs: []patch.PortSpec{{
				Name:    "in",
				Payload: patch.FixedSpec(ctype.PayloadFloat),
			}},
			Outputs: []patch.PortSpec{{
				Name:    "out",
				Payload: patch.FixedSpec(ctype.PayloadFloat),
				Card:    patch.FixedSpec(ctype.One()),
			}},
			CardinalityGeneric: true,
		}, func(c *lower.Ctx) error {
			in, err := c.In("in")
			if err != nil {
				return err
			}
			return c.SetOutput("out", c.Kernel(op, in))
		})
	}
	reduce("reduce-sum", lower.OpReduceSum)
	reduce("reduce-min", lower.OpReduceMin)
	reduce("reduce-max", lower.OpReduceMax)
}

func genericBinaryDecl(kind string) *patch.BlockDecl {
	return &patch.BlockDecl{
		Kind: kind,
		Inputs: []patch.PortSpec{
			groupPort("a"),
			groupPort("b"),
		},
		Outputs:            []patch.PortSpec{groupPort("out")},
		PayloadGeneric:     true,
		CardinalityGeneric: true,
	}
}

// groupPort is a port coupled to the node's shared payload group "T"
// and cardinality group "N".
func groupPort(name string) patch.PortSpec {
	return patch.PortSpec{
		Name:    name,
		Payload: patch.GroupSpec[ctype.Payload]("T"),
		Card:    patch.GroupSpec[ctype.Cardinality]("N"),
	}
}

// latched marks an input as consumed only by the Phase-2 state write.
func latched(spec patch.PortSpec) patch.PortSpec {
	spec.Latched = true
	return spec
}
