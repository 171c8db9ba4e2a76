package blocks

import (
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// registerRender adds the sink block that exposes values to the host.
func registerRender(r *Registry) {
	// render is a pure sink: whatever payload and cardinality arrives is
	// published under the node's tag (the "tag" parameter, defaulting to
	// the node id).
	r.Register(&patch.BlockDecl{
		Kind:               "render",
		Inputs:             []patch.PortSpec{{Name: "in"}},
		PayloadGeneric:     true,
		CardinalityGeneric: true,
	}, func(c *lower.Ctx) error {
		tag := string(c.Node().ID)
		if p, ok := c.Node().Params["tag"]; ok && p.Kind == "str" {
			tag = p.Str
		}
		return c.EmitRender(tag, "in")
	})
}
