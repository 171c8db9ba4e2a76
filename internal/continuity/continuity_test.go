package continuity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/strobe/internal/lower"
)

func TestGauges_FirstSightStartsAtTarget(t *testing.T) {
	g := NewGauges()
	buf := []float64{10, 20, 30}
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireImmediate, buf)
	assert.Equal(t, []float64{10, 20, 30}, buf, "appearance is not animated")
}

func TestGauges_EasesTowardTarget(t *testing.T) {
	g := NewGauges()
	buf := []float64{0, 0}
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireImmediate, buf)

	// Target moves; the displayed value follows partway.
	buf = []float64{10, 10}
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireImmediate, buf)
	assert.Greater(t, buf[0], 0.0)
	assert.Less(t, buf[0], 10.0)
	assert.Equal(t, buf[0], buf[1])

	// Repeated frames converge.
	for i := 0; i < 500; i++ {
		step := []float64{10, 10}
		g.Apply("n/out", "arr", 1, 0.016, lower.RetireImmediate, step)
		buf = step
	}
	assert.InDelta(t, 10.0, buf[0], 1e-6)
}

func TestGauges_OwnersDoNotShare(t *testing.T) {
	g := NewGauges()
	a := []float64{0}
	g.Apply("n/a", "arr", 1, 0.016, lower.RetireImmediate, a)
	b := []float64{100}
	g.Apply("n/b", "arr", 1, 0.016, lower.RetireImmediate, b)
	assert.Equal(t, 100.0, b[0], "first sight for its own owner key")
}

func TestGauges_ImmediateRetirementForgets(t *testing.T) {
	g := NewGauges()
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireImmediate, []float64{5, 6})

	// Element 1 disappears, then reappears: its gauge must be gone, so
	// it restarts at the new target instead of easing from 6.
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireImmediate, []float64{5})
	buf := []float64{5, 100}
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireImmediate, buf)
	assert.Equal(t, 100.0, buf[1])
}

func TestGauges_DecayRetirementRemembers(t *testing.T) {
	g := NewGauges()
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireDecay, []float64{5, 6})

	// Brief disappearance within the TTL: the gauge survives and the
	// reappearing element eases from its old value.
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireDecay, []float64{5})
	buf := []float64{5, 100}
	g.Apply("n/out", "arr", 1, 0.016, lower.RetireDecay, buf)
	assert.Greater(t, buf[1], 6.0)
	assert.Less(t, buf[1], 100.0)

	// Past the TTL it is dropped for good.
	g2 := NewGauges()
	g2.Apply("n/out", "arr", 1, 0.016, lower.RetireDecay, []float64{5, 6})
	g2.Apply("n/out", "arr", 1, DefaultDecayTTL+1, lower.RetireDecay, []float64{5})
	buf = []float64{5, 100}
	g2.Apply("n/out", "arr", 1, 0.016, lower.RetireDecay, buf)
	assert.Equal(t, 100.0, buf[1])
}

func migrationProgram(t *testing.T, perElement bool) *lower.Program {
	t.Helper()
	prog := &lower.Program{StableIDs: map[string]lower.StateID{}}
	prog.States = append(prog.States, lower.StateInfo{
		StableID:   "state/u/dly/prev",
		Stride:     1,
		PerElement: perElement,
		Default:    []float64{0},
	})
	prog.StableIDs["state/u/dly/prev"] = 0
	return prog
}

func TestMigrate_MatchingCellCarries(t *testing.T) {
	old := NewCells()
	old.Scalars["state/u/dly/prev"] = []float64{7}

	cells, issues := Migrate(migrationProgram(t, false), old)
	require.Empty(t, issues)
	assert.Equal(t, []float64{7}, cells.Scalars["state/u/dly/prev"])
}

func TestMigrate_UnknownOldCellDrops(t *testing.T) {
	old := NewCells()
	old.Scalars["state/u/gone/prev"] = []float64{3}

	cells, issues := Migrate(migrationProgram(t, false), old)
	require.Empty(t, issues)
	assert.Empty(t, cells.Scalars)
	assert.Empty(t, cells.Fields)
}

func TestMigrate_KindChangeReportsAndRestarts(t *testing.T) {
	old := NewCells()
	old.Scalars["state/u/dly/prev"] = []float64{7}

	cells, issues := Migrate(migrationProgram(t, true), old)
	require.Len(t, issues, 1)
	assert.Equal(t, "state/u/dly/prev", issues[0].StableID)
	assert.Empty(t, cells.Fields, "restarts at default")
}

func TestMigrate_StrideChangeReportsAndRestarts(t *testing.T) {
	old := NewCells()
	old.Scalars["state/u/dly/prev"] = []float64{1, 2}

	cells, issues := Migrate(migrationProgram(t, false), old)
	require.Len(t, issues, 1)
	assert.Empty(t, cells.Scalars)
}
