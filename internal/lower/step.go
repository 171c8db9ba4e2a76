package lower

import (
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/patch"
)

// SlotID indexes the runtime's per-frame scratch slot table.
type SlotID int32

// StateID indexes the runtime's persistent state table. The index is
// positional and program-local; migration across programs goes through
// stable state identities, never through StateIDs.
type StateID int32

// SlotInfo describes one scratch slot. Lanes is 1 unless the slot is
// aligned to an instance, in which case the lane count follows the
// instance's per-frame element count.
type SlotInfo struct {
	Stride   int              `json:"stride"`
	Instance ctype.InstanceID `json:"instance,omitempty"`
}

// StateInfo describes one persistent state slot.
type StateInfo struct {
	StableID   string           `json:"stable_id"`
	Stride     int              `json:"stride"`
	PerElement bool             `json:"per_element,omitempty"`
	Instance   ctype.InstanceID `json:"instance,omitempty"`
	Default    []float64        `json:"default"` // stride lanes
}

// InstanceInfo describes one instance's runtime topology: a static
// count, or a count slot evaluated each frame.
type InstanceInfo struct {
	ID        ctype.InstanceID `json:"id"`
	Count     int              `json:"count"`
	Dynamic   bool             `json:"dynamic,omitempty"`
	CountSlot SlotID           `json:"count_slot,omitempty"`
}

// ContinuityPolicy declares how gauges of disappeared elements retire.
type ContinuityPolicy uint8

const (
	RetireImmediate ContinuityPolicy = iota
	RetireDecay
)

// StepKind is the closed set of schedule step kinds.
type StepKind uint8

const (
	StepEval             StepKind = iota // expr -> single-lane slot
	StepWriteSlot                        // copy slot -> slot
	StepMaterializeField                 // expr per element -> instance-aligned slot
	StepApplyContinuity                  // smooth an instance-aligned slot through gauges
	StepEvalEvent                        // discrete edge detection against previous sample
	StepRenderEmit                       // expose a slot as a named render buffer
	StepWriteStateScalar                 // Phase 2: slot -> scalar state
	StepWriteStateField                  // Phase 2: slot -> per-element state
)

func (k StepKind) String() string {
	switch k {
	case StepEval:
		return "eval"
	case StepWriteSlot:
		return "write_slot"
	case StepMaterializeField:
		return "materialize_field"
	case StepApplyContinuity:
		return "apply_continuity"
	case StepEvalEvent:
		return "eval_event"
	case StepRenderEmit:
		return "render_emit"
	case StepWriteStateScalar:
		return "write_state_scalar"
	case StepWriteStateField:
		return "write_state_field"
	default:
		return "step?"
	}
}

// Phase returns 1 or 2 for a step kind. Every kind maps to exactly one
// phase; an unmapped kind is a compiler defect and panics.
func (k StepKind) Phase() int {
	switch k {
	case StepEval, StepWriteSlot, StepMaterializeField,
		StepApplyContinuity, StepEvalEvent, StepRenderEmit:
		return 1
	case StepWriteStateScalar, StepWriteStateField:
		return 2
	default:
		panic("lower: step kind " + k.String() + " has no phase mapping")
	}
}

// Step is one schedule entry. Field use depends on Kind.
type Step struct {
	Kind StepKind `json:"kind"`

	Expr ExprID `json:"expr,omitempty"`
	Slot SlotID `json:"slot,omitempty"` // destination for eval/materialize, source otherwise
	Src  SlotID `json:"src,omitempty"`
	Dst  SlotID `json:"dst,omitempty"`

	State    StateID          `json:"state,omitempty"`
	Instance ctype.InstanceID `json:"instance,omitempty"`
	Policy   ContinuityPolicy `json:"policy,omitempty"`

	// Tag names a render output or an event channel.
	Tag string `json:"tag,omitempty"`

	// Node attributes the step for diagnostics and tracing.
	Node patch.NodeID `json:"node,omitempty"`
}
