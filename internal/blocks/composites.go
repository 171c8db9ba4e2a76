package blocks

import "github.com/waveline/strobe/internal/patch"

// registerComposites adds the grouped blocks. Composites have no
// lowering function: the normalizer expands them into their subgraph
// before the solver ever sees them.
func registerComposites(r *Registry) {
	// double feeds its single input into both operands of an add.
	r.Register(&patch.BlockDecl{
		Kind:    "double",
		Inputs:  []patch.PortSpec{{Name: "in"}},
		Outputs: []patch.PortSpec{{Name: "out"}},
		Composite: &patch.CompositeDef{
			Nodes: []patch.Node{{ID: "add", Block: "add"}},
			InputBind: map[string][]patch.PortRef{
				"in": {{Node: "add", Port: "a"}, {Node: "add", Port: "b"}},
			},
			OutputBind: map[string]patch.PortRef{
				"out": {Node: "add", Port: "out"},
			},
		},
	}, nil)

	// inc adds one to a float.
	r.Register(&patch.BlockDecl{
		Kind:    "inc",
		Inputs:  []patch.PortSpec{{Name: "in"}},
		Outputs: []patch.PortSpec{{Name: "out"}},
		Composite: &patch.CompositeDef{
			Nodes: []patch.Node{
				{ID: "one", Block: "number", Params: map[string]patch.Param{"value": patch.NumParam(1)}},
				{ID: "add", Block: "add"},
			},
			Edges: []patch.Edge{{
				From:    patch.PortRef{Node: "one", Port: "out"},
				To:      patch.PortRef{Node: "add", Port: "b"},
				Role:    patch.EdgeAuto,
				Enabled: true,
			}},
			InputBind: map[string][]patch.PortRef{
				"in": {{Node: "add", Port: "a"}},
			},
			OutputBind: map[string]patch.PortRef{
				"out": {Node: "add", Port: "out"},
			},
		},
	}, nil)
}
