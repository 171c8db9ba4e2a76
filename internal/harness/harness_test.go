package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/strobe/internal/trace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun_ConstantScenario(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/constant.yaml")
	require.NoError(t, err)

	res, err := Run(sc)
	require.NoError(t, err)

	require.Len(t, res.Frames, 2)
	require.Len(t, res.Installs, 1)
	assert.Equal(t, "constant-render-rev-1", res.Installs[0].Revision.Token)

	for i, out := range res.Frames {
		assert.Equal(t, uint64(i), out.Frame)
		require.Len(t, out.Renders, 1)
		assert.Equal(t, "out", out.Renders[0].Tag)
		assert.Equal(t, []float64{5}, out.Renders[0].Data)
	}
}

func TestRun_EditSwitchesValue(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/edit.yaml")
	require.NoError(t, err)

	res, err := Run(sc)
	require.NoError(t, err)

	require.Len(t, res.Frames, 4)
	assert.Equal(t, []float64{5}, res.Frames[1].Renders[0].Data)
	assert.Equal(t, []float64{7}, res.Frames[2].Renders[0].Data)

	require.Len(t, res.Installs, 2)
	assert.Equal(t, int64(2), res.Installs[1].Revision.Seq)
	assert.Equal(t, uint64(2), res.Installs[1].Frame)
	// A pure swap of a stateless patch migrates nothing.
	assert.Empty(t, res.Installs[1].Issues)
}

func TestRun_InputsReachFrames(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/pointer.yaml")
	require.NoError(t, err)

	res, err := Run(sc)
	require.NoError(t, err)

	require.Len(t, res.Frames, 2)
	assert.Equal(t, []float64{1, 2}, res.Frames[0].Renders[0].Data)
	assert.Equal(t, []float64{3, 4}, res.Frames[1].Renders[0].Data)
	assert.Equal(t, 2, res.Frames[0].Renders[0].Stride)
}

func TestRun_BadPatchFails(t *testing.T) {
	dir := t.TempDir()
	patch := filepath.Join(dir, "p.cue")
	writeFile(t, patch, `patch: {nodes: {n: {block: "no-such-block"}}}`)

	_, err := Run(&Scenario{Name: "bad", Patch: patch, Frames: 1, DT: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile")
}

func TestRecord_RoundTripsThroughStore(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/edit.yaml")
	require.NoError(t, err)
	res, err := Run(sc)
	require.NoError(t, err)

	st, err := trace.Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, Record(ctx, st, res))

	revs, err := st.Revisions(ctx)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "live-edit-rev-2", revs[1].Token)

	// Frames before the edit belong to revision 1, after to revision 2.
	rec, err := st.ReadFrame(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.RevisionSeq)
	rec, err = st.ReadFrame(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.RevisionSeq)

	// Stored hashes verify against the live outputs.
	want, err := trace.FrameHash(&res.Frames[2])
	require.NoError(t, err)
	assert.Equal(t, want, rec.Hash)
}
