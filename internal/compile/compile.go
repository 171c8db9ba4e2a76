// Package compile runs the full pipeline: normalize, solve, analyze,
// lower. It is the only package that sees every stage; callers hand it
// a raw snapshot and a catalog and get back a frontend result plus,
// when the patch is clean, a runnable program.
package compile

import (
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/depgraph"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/normalize"
	"github.com/waveline/strobe/internal/patch"
	"github.com/waveline/strobe/internal/solve"
)

// Catalog is the full catalog contract the pipeline needs: the solver's
// declarative view plus lowering lookup.
type Catalog interface {
	patch.Catalog
	Lower(kind string) (lower.Func, bool)
}

// Frontend is the part of a compile every consumer gets, diagnostics or
// not: the normalized graph, the resolved port types, and the cycle
// classification. Editors render types and cycle badges from this even
// while the patch is broken.
type Frontend struct {
	Snapshot *patch.Snapshot
	Types    map[solve.PortKey]ctype.Concrete
	Cycles   []depgraph.CycleInfo
	Diags    patch.DiagList
}

// OK reports whether the compile produced no diagnostics.
func (f *Frontend) OK() bool { return len(f.Diags) == 0 }

// Result is one complete compile. Program is non-nil iff Frontend.OK.
type Result struct {
	Frontend Frontend
	Program  *lower.Program
}

// Compile runs the whole pipeline. Diagnostics accumulate across every
// stage; lowering is attempted only on a clean frontend, but the
// frontend result is always populated.
func Compile(snap *patch.Snapshot, cat Catalog) *Result {
	norm, diags := normalize.Run(snap, cat)

	solved := solve.Solve(norm, cat)
	diags = append(diags, solved.Diags...)

	analysis := depgraph.Analyze(norm, cat)
	diags = append(diags, analysis.Diags...)

	res := &Result{Frontend: Frontend{
		Snapshot: norm,
		Types:    solved.Types,
		Cycles:   analysis.Cycles,
	}}

	if len(diags) == 0 {
		prog, ldiags := lower.Build(norm, solved.Types, analysis.Order, cat.Lower)
		diags = append(diags, ldiags...)
		if len(diags) == 0 {
			res.Program = prog
		}
	}

	res.Frontend.Diags = diags.Sorted()
	return res
}
