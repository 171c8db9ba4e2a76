package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/waveline/strobe/internal/blocks"
	"github.com/waveline/strobe/internal/compile"
	"github.com/waveline/strobe/internal/continuity"
	"github.com/waveline/strobe/internal/cueload"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/runtime"
	"github.com/waveline/strobe/internal/trace"
)

// Install records one revision and the frame it landed before.
type Install struct {
	Revision runtime.Revision
	Frame    uint64
	Issues   []continuity.Issue
}

// Result is everything observable from one scenario run.
type Result struct {
	Installs []Install
	Frames   []runtime.FrameOutput
}

// Run executes a scenario and returns its result. The initial patch
// compiles and installs as revision one; each edit compiles and
// installs before its frame. Any compile diagnostic or frame error
// aborts the run.
func Run(sc *Scenario) (*Result, error) {
	prog, err := compilePatch(sc.Patch)
	if err != nil {
		return nil, err
	}

	tokens := sc.Tokens
	if len(tokens) == 0 {
		tokens = make([]string, 1+len(sc.Edits))
		for i := range tokens {
			tokens[i] = fmt.Sprintf("%s-rev-%d", sc.Name, i+1)
		}
	}

	sess := runtime.NewSession(prog, runtime.NewFixedGenerator(tokens...))
	res := &Result{
		Installs: []Install{{Revision: sess.Revision(), Frame: 0}},
	}

	editAt := make(map[int]string, len(sc.Edits))
	for _, ed := range sc.Edits {
		editAt[ed.Frame] = ed.Patch
	}
	inputsAt := make(map[int]map[string][]float64)
	for _, in := range sc.Inputs {
		if inputsAt[in.Frame] == nil {
			inputsAt[in.Frame] = make(map[string][]float64)
		}
		inputsAt[in.Frame][in.Name] = in.Values
	}

	for f := 0; f < sc.Frames; f++ {
		if path, ok := editAt[f]; ok {
			next, err := compilePatch(path)
			if err != nil {
				return nil, fmt.Errorf("edit before frame %d: %w", f, err)
			}
			rev, issues := sess.Install(next)
			res.Installs = append(res.Installs, Install{
				Revision: rev,
				Frame:    sess.State().Frame(),
				Issues:   issues,
			})
		}

		out, err := sess.Advance(runtime.FrameInput{
			Time:   sc.Start + float64(f)*sc.DT,
			Values: inputsAt[f],
		})
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", f, err)
		}
		res.Frames = append(res.Frames, *out)
	}
	return res, nil
}

// Record writes a scenario result into a trace store, one revision row
// per install and one frame row per frame.
func Record(ctx context.Context, st *trace.Store, res *Result) error {
	for _, ins := range res.Installs {
		if err := st.WriteRevision(ctx, ins.Revision, ins.Frame); err != nil {
			return err
		}
	}
	seq := 0
	for i := range res.Frames {
		out := &res.Frames[i]
		// Advance seq past installs that landed at or before this frame.
		for seq+1 < len(res.Installs) && res.Installs[seq+1].Frame <= out.Frame {
			seq++
		}
		if err := st.WriteFrame(ctx, res.Installs[seq].Revision.Seq, out); err != nil {
			return err
		}
	}
	return nil
}

// compilePatch loads a CUE patch file and compiles it end to end.
func compilePatch(path string) (*lower.Program, error) {
	snap, errs := cueload.LoadFile(path)
	if len(errs) > 0 {
		return nil, fmt.Errorf("load %s: %w", path, errors.Join(errs...))
	}
	r := compile.Compile(snap, blocks.Builtin())
	if !r.Frontend.OK() {
		return nil, fmt.Errorf("compile %s: %s", path, r.Frontend.Diags)
	}
	return r.Program, nil
}
