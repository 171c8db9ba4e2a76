package continuity

import (
	"fmt"

	"github.com/waveline/strobe/internal/lower"
)

// Cells is the program-independent form of persistent state: lanes
// keyed by stable state identity. Scalar cells hold stride lanes;
// field cells hold count*stride lanes in element order.
type Cells struct {
	Scalars map[string][]float64
	Fields  map[string][]float64
}

// NewCells returns an empty cell store.
func NewCells() Cells {
	return Cells{
		Scalars: make(map[string][]float64),
		Fields:  make(map[string][]float64),
	}
}

// Issue is one non-fatal migration finding. Migration always produces a
// usable result; issues tell the host which cells restarted and why.
type Issue struct {
	StableID string
	Reason   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.StableID, i.Reason)
}

// Migrate maps old cells onto the new program's state layout.
//
// For every state the new program declares: a cell with the same stable
// identity and compatible shape carries over; a shape change (stride,
// or scalar vs field) is reported and the cell restarts at its default;
// an identity the old program never had starts at its default silently.
// Old cells with no counterpart in the new program are dropped.
func Migrate(newProg *lower.Program, old Cells) (Cells, []Issue) {
	out := NewCells()
	var issues []Issue

	for _, info := range newProg.States {
		if info.PerElement {
			lanes, ok := old.Fields[info.StableID]
			if !ok {
				if _, wrongKind := old.Scalars[info.StableID]; wrongKind {
					issues = append(issues, Issue{info.StableID, "was scalar, now per-element; restarting at default"})
				}
				continue // defaults materialize lazily in the runtime
			}
			if len(lanes)%info.Stride != 0 {
				issues = append(issues, Issue{info.StableID, fmt.Sprintf("stride changed to %d; restarting at default", info.Stride)})
				continue
			}
			out.Fields[info.StableID] = append([]float64(nil), lanes...)
			continue
		}

		lanes, ok := old.Scalars[info.StableID]
		if !ok {
			if _, wrongKind := old.Fields[info.StableID]; wrongKind {
				issues = append(issues, Issue{info.StableID, "was per-element, now scalar; restarting at default"})
			}
			continue
		}
		if len(lanes) != info.Stride {
			issues = append(issues, Issue{info.StableID, fmt.Sprintf("stride changed from %d to %d; restarting at default", len(lanes), info.Stride)})
			continue
		}
		out.Scalars[info.StableID] = append([]float64(nil), lanes...)
	}

	return out, issues
}
