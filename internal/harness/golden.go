package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/waveline/strobe/internal/canon"
)

// snapshot flattens a result into the canonical-JSON shape stored in
// golden files. Program hashes are omitted: they change with every
// schedule tweak, and the frame outputs already pin the observable
// behavior.
func snapshot(sc *Scenario, res *Result) map[string]any {
	installs := make([]any, len(res.Installs))
	for i, ins := range res.Installs {
		installs[i] = map[string]any{
			"seq":   ins.Revision.Seq,
			"token": ins.Revision.Token,
			"frame": int64(ins.Frame),
		}
	}
	frames := make([]any, len(res.Frames))
	for i := range res.Frames {
		out := &res.Frames[i]
		renders := make([]any, len(out.Renders))
		for j, r := range out.Renders {
			renders[j] = map[string]any{
				"tag":    r.Tag,
				"stride": int64(r.Stride),
				"count":  int64(r.Count),
				"data":   r.Data,
			}
		}
		events := make([]any, len(out.Events))
		for j, e := range out.Events {
			events[j] = map[string]any{
				"tag":  e.Tag,
				"node": string(e.Node),
			}
		}
		frames[i] = map[string]any{
			"frame":   int64(out.Frame),
			"time":    out.Time,
			"renders": renders,
			"events":  events,
		}
	}
	return map[string]any{
		"scenario": sc.Name,
		"installs": installs,
		"frames":   frames,
	}
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/<name>.golden. Regenerate with -update.
func RunWithGolden(t *testing.T, sc *Scenario) error {
	t.Helper()

	res, err := Run(sc)
	if err != nil {
		return err
	}
	data, err := canon.Marshal(snapshot(sc, res))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)
	return nil
}
