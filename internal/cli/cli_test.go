package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePatch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patch.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_RejectsBadFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", "nope.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCompile_CleanPatch(t *testing.T) {
	path := writePatch(t, `patch: {
		nodes: {
			n: {block: "number", params: {value: 5}}
			out: {block: "render"}
		}
		wires: [{from: "n.out", to: "out.in"}]
	}`)

	out, err := execute(t, "compile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled")
	assert.Contains(t, out, "hash:")
}

func TestCompile_WritesProgramFile(t *testing.T) {
	path := writePatch(t, `patch: {
		nodes: {
			n: {block: "number", params: {value: 5}}
			out: {block: "render"}
		}
		wires: [{from: "n.out", to: "out.in"}]
	}`)
	progFile := filepath.Join(t.TempDir(), "program.json")

	_, err := execute(t, "compile", path, "-o", progFile)
	require.NoError(t, err)

	data, err := os.ReadFile(progFile)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "phase1")
}

func TestCompile_LoadErrorExitsTwo(t *testing.T) {
	_, err := execute(t, "compile", filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_UnknownBlockExitsOne(t *testing.T) {
	path := writePatch(t, `patch: {nodes: {n: {block: "no-such-block"}}}`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "UNKNOWN_BLOCK")
}

func TestValidate_ReportsIllegalCycle(t *testing.T) {
	path := writePatch(t, `patch: {
		nodes: {
			a: {block: "add"}
			b: {block: "add"}
			n: {block: "number", params: {value: 1}}
		}
		wires: [
			{from: "a.out", to: "b.a"},
			{from: "b.out", to: "a.a"},
			{from: "n.out", to: "a.b"},
		]
	}`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "illegal (combinatorial)")
}

func TestValidate_CleanPatchJSON(t *testing.T) {
	path := writePatch(t, `patch: {
		nodes: {
			n: {block: "number", params: {value: 5}}
			out: {block: "render"}
		}
		wires: [{from: "n.out", to: "out.in"}]
	}`)

	out, err := execute(t, "--format", "json", "validate", path, "--types")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRun_RecordTraceReplayRoundTrip(t *testing.T) {
	path := writePatch(t, `patch: {
		nodes: {
			t: {block: "time"}
			d: {block: "delay"}
			out: {block: "render"}
		}
		wires: [
			{from: "t.out", to: "d.in"},
			{from: "d.out", to: "out.in"},
		]
	}`)
	db := filepath.Join(t.TempDir(), "trace.db")

	out, err := execute(t, "run", path, "--frames", "10", "--dt", "0.5", "--record", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Ran 10 frame(s)")

	out, err = execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Revisions (1):")

	out, err = execute(t, "trace", "--db", db, "--tag", "out", "--from", "0", "--to", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "10 sample(s)")

	out, err = execute(t, "replay", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "matched 10/10")
}

func TestReplay_DetectsDivergence(t *testing.T) {
	recorded := writePatch(t, `patch: {
		nodes: {
			n: {block: "number", params: {value: 5}}
			out: {block: "render"}
		}
		wires: [{from: "n.out", to: "out.in"}]
	}`)
	db := filepath.Join(t.TempDir(), "trace.db")
	_, err := execute(t, "run", recorded, "--frames", "3", "--record", db)
	require.NoError(t, err)

	changed := writePatch(t, `patch: {
		nodes: {
			n: {block: "number", params: {value: 6}}
			out: {block: "render"}
		}
		wires: [{from: "n.out", to: "out.in"}]
	}`)
	_, err = execute(t, "replay", changed, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRun_DiagnosticsExitOne(t *testing.T) {
	path := writePatch(t, `patch: {nodes: {n: {block: "no-such-block"}}}`)

	_, err := execute(t, "run", path, "--frames", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
