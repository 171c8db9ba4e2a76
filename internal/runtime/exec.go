package runtime

import (
	"fmt"
	"math"

	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// FrameInput is everything the outside world contributes to one frame:
// a timestamp (seconds, strictly increasing) and named input samples.
// A missing input samples as zero lanes; "time" defaults to Time.
type FrameInput struct {
	Time   float64
	Values map[string][]float64
}

// Render is one published buffer: count elements of stride lanes each.
// Data is a copy; the host may keep it past the frame.
type Render struct {
	Tag    string
	Stride int
	Count  int
	Data   []float64
}

// Event is one discrete occurrence fired this frame.
type Event struct {
	Tag  string
	Node patch.NodeID
}

// FrameOutput is the observable result of one frame. Renders and
// Events appear in schedule order, which is stable across runs.
type FrameOutput struct {
	Frame   uint64
	Time    float64
	Renders []Render
	Events  []Event
}

// Advance runs one frame: Phase 1 end to end, then Phase 2. On error
// the state is untouched; all validation happens before the first step
// executes.
func (s *State) Advance(in FrameInput) (*FrameOutput, error) {
	if s.started && in.Time <= s.lastTime {
		return nil, &FrameError{
			Code:    ErrCodeTimeRegression,
			Message: fmt.Sprintf("timestamp %v does not advance past %v", in.Time, s.lastTime),
			Frame:   s.frame,
		}
	}
	if err := s.checkInputs(in); err != nil {
		return nil, err
	}

	dt := 0.0
	if s.started {
		dt = in.Time - s.lastTime
	}
	x := &exec{
		s:    s,
		prog: s.prog,
		in:   in,
		dt:   dt,
		out:  &FrameOutput{Frame: s.frame, Time: in.Time},
	}

	for i := range s.prog.Phase1 {
		step := &s.prog.Phase1[i]
		if step.Kind.Phase() != 1 {
			panic(fmt.Sprintf("runtime: %s step scheduled in phase 1", step.Kind))
		}
		x.run1(step)
	}
	for i := range s.prog.Phase2 {
		step := &s.prog.Phase2[i]
		if step.Kind.Phase() != 2 {
			panic(fmt.Sprintf("runtime: %s step scheduled in phase 2", step.Kind))
		}
		x.run2(step)
	}

	s.frame++
	s.lastTime = in.Time
	s.started = true
	return x.out, nil
}

// checkInputs verifies provided samples against the lane widths the
// program reads them at.
func (s *State) checkInputs(in FrameInput) error {
	widths := make(map[string]int)
	for _, e := range s.prog.Exprs {
		if e.Kind == lower.ExprInput {
			widths[e.Input] = e.Stride
		}
	}
	for name, lanes := range in.Values {
		want, used := widths[name]
		if used && len(lanes) != want {
			return &FrameError{
				Code:    ErrCodeBadInput,
				Message: fmt.Sprintf("input %q has %d lanes, program reads %d", name, len(lanes), want),
				Frame:   s.frame,
			}
		}
	}
	return nil
}

type exec struct {
	s    *State
	prog *lower.Program
	in   FrameInput
	dt   float64
	out  *FrameOutput
}

// countOf returns an instance's element count this frame. Dynamic
// counts read their count slot, which the schedule guarantees is
// evaluated before any step that needs the count.
func (x *exec) countOf(inst ctype.InstanceID) int {
	for i := range x.prog.Instances {
		info := &x.prog.Instances[i]
		if info.ID != inst {
			continue
		}
		if info.Dynamic && info.CountSlot >= 0 {
			n := int(math.Floor(x.s.scratch[info.CountSlot][0]))
			if n < 0 {
				n = 0
			}
			return n
		}
		return info.Count
	}
	panic(fmt.Sprintf("runtime: unknown instance %q", inst))
}

func (x *exec) run1(step *lower.Step) {
	switch step.Kind {
	case lower.StepEval:
		info := x.prog.Slots[step.Slot]
		buf := x.s.slot(step.Slot, info.Stride)
		copy(buf, x.eval(step.Expr, -1))

	case lower.StepMaterializeField:
		info := x.prog.Slots[step.Slot]
		count := x.countOf(step.Instance)
		buf := x.s.slot(step.Slot, count*info.Stride)
		for elem := 0; elem < count; elem++ {
			copy(buf[elem*info.Stride:(elem+1)*info.Stride], x.eval(step.Expr, elem))
		}

	case lower.StepWriteSlot:
		src := x.s.scratch[step.Src]
		copy(x.s.slot(step.Dst, len(src)), src)

	case lower.StepApplyContinuity:
		info := x.prog.Slots[step.Slot]
		owner := string(step.Node) + "/" + step.Tag
		x.s.gauges.Apply(owner, step.Instance, info.Stride, x.dt, step.Policy, x.s.scratch[step.Slot])

	case lower.StepEvalEvent:
		prev := x.s.scalarCell(step.State)[0]
		cur := x.s.scratch[step.Src][0]
		buf := x.s.slot(step.Dst, 1)
		buf[0] = 0
		if prev <= 0.5 && cur > 0.5 {
			buf[0] = 1
			x.out.Events = append(x.out.Events, Event{Tag: step.Tag, Node: step.Node})
		}

	case lower.StepRenderEmit:
		info := x.prog.Slots[step.Slot]
		src := x.s.scratch[step.Slot]
		count := 1
		if info.Instance != "" {
			count = len(src) / info.Stride
		}
		x.out.Renders = append(x.out.Renders, Render{
			Tag:    step.Tag,
			Stride: info.Stride,
			Count:  count,
			Data:   append([]float64(nil), src...),
		})

	default:
		panic(fmt.Sprintf("runtime: unhandled phase-1 step %s", step.Kind))
	}
}

func (x *exec) run2(step *lower.Step) {
	switch step.Kind {
	case lower.StepWriteStateScalar:
		copy(x.s.scalarCell(step.State), x.s.scratch[step.Slot])

	case lower.StepWriteStateField:
		src := x.s.scratch[step.Slot]
		x.s.fields[step.State] = append(x.s.fields[step.State][:0], src...)

	default:
		panic(fmt.Sprintf("runtime: unhandled phase-2 step %s", step.Kind))
	}
}

// eval computes one expression. elem is the current element index for
// instance-aligned evaluation, or -1 in scalar context. The returned
// lanes are read-only and valid until the next eval call.
func (x *exec) eval(id lower.ExprID, elem int) []float64 {
	e := &x.prog.Exprs[id]
	switch e.Kind {
	case lower.ExprConst:
		return e.Const

	case lower.ExprInput:
		if lanes, ok := x.in.Values[e.Input]; ok {
			return lanes
		}
		if e.Input == "time" {
			return []float64{x.in.Time}
		}
		return make([]float64, e.Stride)

	case lower.ExprSlot:
		buf := x.s.scratch[e.Slot]
		if e.Instance == "" {
			return buf
		}
		if elem < 0 {
			panic(fmt.Sprintf("runtime: field slot %d read in scalar context", e.Slot))
		}
		lo := elem * e.Stride
		if lo+e.Stride > len(buf) {
			// A one-element producer broadcasting into a wider consumer.
			return buf[:e.Stride]
		}
		return buf[lo : lo+e.Stride]

	case lower.ExprState:
		return x.s.scalarCell(e.State)

	case lower.ExprStateElem:
		if elem < 0 {
			panic(fmt.Sprintf("runtime: per-element state %d read in scalar context", e.State))
		}
		return x.s.fieldLanes(e.State, elem)

	case lower.ExprElemIndex:
		if elem < 0 {
			panic("runtime: element index read in scalar context")
		}
		return []float64{float64(elem)}

	case lower.ExprElemCount:
		return []float64{float64(x.countOf(e.Instance))}

	case lower.ExprKernel:
		return x.kernel(e, elem)

	default:
		panic(fmt.Sprintf("runtime: unhandled expression kind %d", e.Kind))
	}
}

func (x *exec) kernel(e *lower.Expr, elem int) []float64 {
	if e.Op.IsReduce() {
		return x.reduce(e, elem)
	}
	if e.Op == lower.OpPack {
		out := make([]float64, len(e.Args))
		for i, a := range e.Args {
			out[i] = x.eval(a, elem)[0]
		}
		return out
	}

	args := make([][]float64, len(e.Args))
	width := 1
	for i, a := range e.Args {
		args[i] = x.eval(a, elem)
		if len(args[i]) > width {
			width = len(args[i])
		}
	}
	lane := func(i, l int) float64 {
		v := args[i]
		if len(v) == 1 {
			return v[0] // single-lane operands broadcast
		}
		return v[l]
	}

	out := make([]float64, width)
	for l := 0; l < width; l++ {
		switch e.Op {
		case lower.OpAdd:
			out[l] = lane(0, l) + lane(1, l)
		case lower.OpSub:
			out[l] = lane(0, l) - lane(1, l)
		case lower.OpMul:
			out[l] = lane(0, l) * lane(1, l)
		case lower.OpDiv:
			d := lane(1, l)
			if d == 0 {
				out[l] = 0 // division by zero yields 0, not Inf
			} else {
				out[l] = lane(0, l) / d
			}
		case lower.OpNeg:
			out[l] = -lane(0, l)
		case lower.OpMin:
			out[l] = math.Min(lane(0, l), lane(1, l))
		case lower.OpMax:
			out[l] = math.Max(lane(0, l), lane(1, l))
		case lower.OpAbs:
			out[l] = math.Abs(lane(0, l))
		case lower.OpFloor:
			out[l] = math.Floor(lane(0, l))
		case lower.OpSin:
			out[l] = math.Sin(lane(0, l))
		case lower.OpCos:
			out[l] = math.Cos(lane(0, l))
		case lower.OpGreater:
			if lane(0, l) > lane(1, l) {
				out[l] = 1
			}
		default:
			panic(fmt.Sprintf("runtime: unhandled kernel op %s", e.Op))
		}
	}
	return out
}

// reduce folds its argument across every element of the argument's
// instance. The reduction of an empty field is 0 for every operation.
func (x *exec) reduce(e *lower.Expr, elem int) []float64 {
	arg := e.Args[0]
	inst := x.instanceOf(arg)
	if inst == "" {
		// Reducing a single value is the identity.
		return []float64{x.eval(arg, elem)[0]}
	}

	count := x.countOf(inst)
	if count == 0 {
		return []float64{0}
	}
	acc := x.eval(arg, 0)[0]
	for i := 1; i < count; i++ {
		v := x.eval(arg, i)[0]
		switch e.Op {
		case lower.OpReduceSum:
			acc += v
		case lower.OpReduceMin:
			acc = math.Min(acc, v)
		case lower.OpReduceMax:
			acc = math.Max(acc, v)
		}
	}
	return []float64{acc}
}

// instanceOf finds the instance an expression tree is aligned to, or ""
// for scalar trees.
func (x *exec) instanceOf(id lower.ExprID) ctype.InstanceID {
	e := &x.prog.Exprs[id]
	if e.Instance != "" && e.Kind != lower.ExprElemCount {
		return e.Instance
	}
	for _, a := range e.Args {
		if inst := x.instanceOf(a); inst != "" {
			return inst
		}
	}
	return ""
}
