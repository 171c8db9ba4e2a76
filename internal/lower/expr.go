package lower

import (
	"github.com/waveline/strobe/internal/ctype"
)

// ExprID indexes the program's expression arena.
type ExprID int32

// ExprKind discriminates the closed set of pure computations.
type ExprKind uint8

const (
	ExprConst     ExprKind = iota // literal lanes
	ExprInput                     // external input sampled at frame start
	ExprSlot                      // read a scratch slot computed this frame
	ExprState                     // read scalar persistent state (previous frame)
	ExprStateElem                 // read per-element persistent state (previous frame)
	ExprKernel                    // kernel application over argument expressions
	ExprElemIndex                 // current element index within an instance
	ExprElemCount                 // current element count of an instance
)

// KernelOp is the closed set of kernel operations. Reduce ops collapse
// an instance-aligned argument to a single lane.
type KernelOp uint8

const (
	OpAdd KernelOp = iota
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpMin
	OpMax
	OpAbs
	OpFloor
	OpSin
	OpCos
	OpGreater // 1 if a > b else 0
	OpPack    // concatenate scalar args into one wider value
	OpReduceSum
	OpReduceMin
	OpReduceMax
)

// IsReduce reports whether the op collapses lanes to one.
func (op KernelOp) IsReduce() bool {
	return op == OpReduceSum || op == OpReduceMin || op == OpReduceMax
}

func (op KernelOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpNeg:
		return "neg"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	case OpAbs:
		return "abs"
	case OpFloor:
		return "floor"
	case OpSin:
		return "sin"
	case OpCos:
		return "cos"
	case OpGreater:
		return "greater"
	case OpPack:
		return "pack"
	case OpReduceSum:
		return "reduce_sum"
	case OpReduceMin:
		return "reduce_min"
	case OpReduceMax:
		return "reduce_max"
	default:
		return "op?"
	}
}

// Expr is one immutable IR expression. Which fields are meaningful
// depends on Kind; expressions are acyclic by construction because
// arguments must already exist in the arena when an expression is
// appended.
type Expr struct {
	Kind ExprKind `json:"kind"`

	Op   KernelOp `json:"op,omitempty"`
	Args []ExprID `json:"args,omitempty"`

	Const []float64 `json:"const,omitempty"`

	Slot  SlotID  `json:"slot,omitempty"`
	State StateID `json:"state,omitempty"`

	Input string `json:"input,omitempty"`

	Instance ctype.InstanceID `json:"instance,omitempty"`

	// Stride of the value this expression produces.
	Stride int `json:"stride"`
}
