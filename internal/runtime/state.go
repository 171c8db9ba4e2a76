package runtime

import (
	"github.com/waveline/strobe/internal/continuity"
	"github.com/waveline/strobe/internal/lower"
)

// State is the mutable companion of one program: persistent state
// cells, continuity gauges, and the per-frame scratch arena. A State
// belongs to exactly one program; hot swaps build a new State from the
// old one via Export and continuity.Migrate.
type State struct {
	prog    *lower.Program
	offsets []int // scalar lane offset per StateID, -1 for fields

	scalars []float64   // packed scalar cells
	fields  [][]float64 // per StateID, count*stride lanes; nil until written

	gauges *continuity.Gauges

	frame    uint64
	lastTime float64
	started  bool

	scratch [][]float64 // per SlotID, reused across frames
}

// NewState returns a fresh state for prog: every cell at its default,
// no gauges.
func NewState(prog *lower.Program) *State {
	return &State{
		prog:    prog,
		offsets: prog.ScalarOffsets(),
		scalars: prog.StateDefaults(),
		fields:  make([][]float64, len(prog.States)),
		gauges:  continuity.NewGauges(),
		scratch: make([][]float64, len(prog.Slots)),
	}
}

// NewStateFrom builds a state for prog from migrated cells and carried
// gauges. Cells absent from the store start at their defaults; the
// frame counter and timeline continue from the given values so the
// swapped program observes uninterrupted time.
func NewStateFrom(prog *lower.Program, cells continuity.Cells, gauges *continuity.Gauges, frame uint64, lastTime float64, started bool) *State {
	s := NewState(prog)
	if gauges != nil {
		s.gauges = gauges
	}
	s.frame = frame
	s.lastTime = lastTime
	s.started = started

	for i, info := range prog.States {
		if info.PerElement {
			if lanes, ok := cells.Fields[info.StableID]; ok {
				s.fields[i] = append([]float64(nil), lanes...)
			}
			continue
		}
		if lanes, ok := cells.Scalars[info.StableID]; ok {
			copy(s.scalars[s.offsets[i]:s.offsets[i]+info.Stride], lanes)
		}
	}
	return s
}

// Export snapshots every persistent cell keyed by stable identity.
func (s *State) Export() continuity.Cells {
	out := continuity.NewCells()
	for i, info := range s.prog.States {
		if info.PerElement {
			if s.fields[i] != nil {
				out.Fields[info.StableID] = append([]float64(nil), s.fields[i]...)
			}
			continue
		}
		off := s.offsets[i]
		out.Scalars[info.StableID] = append([]float64(nil), s.scalars[off:off+info.Stride]...)
	}
	return out
}

// Gauges returns the state's continuity gauges, for carrying across a
// hot swap.
func (s *State) Gauges() *continuity.Gauges { return s.gauges }

// Frame returns the number of frames advanced so far.
func (s *State) Frame() uint64 { return s.frame }

// LastTime returns the timestamp of the most recent frame.
func (s *State) LastTime() float64 { return s.lastTime }

// Started reports whether at least one frame has run.
func (s *State) Started() bool { return s.started }

// Program returns the program this state belongs to.
func (s *State) Program() *lower.Program { return s.prog }

// scalarCell returns the packed lanes of a scalar state.
func (s *State) scalarCell(id lower.StateID) []float64 {
	off := s.offsets[id]
	return s.scalars[off : off+s.prog.States[id].Stride]
}

// fieldLanes returns the stored lanes of element elem of a field state,
// or the declared default when the element has no stored value yet.
func (s *State) fieldLanes(id lower.StateID, elem int) []float64 {
	info := &s.prog.States[id]
	stored := s.fields[id]
	lo := elem * info.Stride
	if stored == nil || lo+info.Stride > len(stored) {
		lanes := make([]float64, info.Stride)
		copy(lanes, info.Default)
		return lanes
	}
	return stored[lo : lo+info.Stride]
}

// slot returns slot id's buffer resized to lanes, reusing capacity.
func (s *State) slot(id lower.SlotID, lanes int) []float64 {
	buf := s.scratch[id]
	if cap(buf) < lanes {
		buf = make([]float64, lanes)
	}
	buf = buf[:lanes]
	s.scratch[id] = buf
	return buf
}
