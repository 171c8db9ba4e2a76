package lower

import (
	"fmt"

	"github.com/waveline/strobe/internal/canon"
)

// Program is one compiled patch: the expression arena, slot/state/
// instance tables, and the two-phase schedule. A Program is immutable
// after Build returns; the runtime owns all mutable companions.
type Program struct {
	Exprs     []Expr         `json:"exprs"`
	Slots     []SlotInfo     `json:"slots"`
	States    []StateInfo    `json:"states"`
	Instances []InstanceInfo `json:"instances"`

	Phase1 []Step `json:"phase1"`
	Phase2 []Step `json:"phase2"`

	// StableIDs maps stable state identity -> positional state slot.
	// Hot-swap migration consumes this from both old and new programs.
	StableIDs map[string]StateID `json:"stable_ids"`

	// Hash is the content hash of everything above; identical patches
	// compile to identical hashes.
	Hash string `json:"hash"`
}

// StateDefaults returns a fresh scalar-state value vector laid out by
// slot offsets, every slot at its declared default.
func (p *Program) StateDefaults() []float64 {
	var total int
	for _, s := range p.States {
		if !s.PerElement {
			total += s.Stride
		}
	}
	out := make([]float64, 0, total)
	for _, s := range p.States {
		if s.PerElement {
			continue
		}
		out = append(out, s.defaultLanes()...)
	}
	return out
}

// ScalarOffsets returns the offset of each scalar state slot within the
// packed state array, indexed by StateID. Per-element slots get -1.
func (p *Program) ScalarOffsets() []int {
	out := make([]int, len(p.States))
	off := 0
	for i, s := range p.States {
		if s.PerElement {
			out[i] = -1
			continue
		}
		out[i] = off
		off += s.Stride
	}
	return out
}

func (s *StateInfo) defaultLanes() []float64 {
	lanes := make([]float64, s.Stride)
	copy(lanes, s.Default)
	return lanes
}

// CanonicalForm returns the program's canonical-JSON content: exactly
// what the hash covers. Persisted program files serialize this form so
// they verify against a trace's program hash.
func (p *Program) CanonicalForm() map[string]any {
	exprs := make([]any, len(p.Exprs))
	for i, e := range p.Exprs {
		m := map[string]any{"kind": int64(e.Kind), "stride": int64(e.Stride)}
		if e.Kind == ExprKernel {
			m["op"] = e.Op.String()
			args := make([]any, len(e.Args))
			for j, a := range e.Args {
				args[j] = int64(a)
			}
			m["args"] = args
		}
		if e.Const != nil {
			m["const"] = e.Const
		}
		if e.Kind == ExprSlot {
			m["slot"] = int64(e.Slot)
		}
		if e.Kind == ExprState || e.Kind == ExprStateElem {
			m["state"] = int64(e.State)
		}
		if e.Input != "" {
			m["input"] = e.Input
		}
		if e.Instance != "" {
			m["instance"] = string(e.Instance)
		}
		exprs[i] = m
	}

	steps := func(list []Step) []any {
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = map[string]any{
				"kind":     s.Kind.String(),
				"expr":     int64(s.Expr),
				"slot":     int64(s.Slot),
				"src":      int64(s.Src),
				"dst":      int64(s.Dst),
				"state":    int64(s.State),
				"instance": string(s.Instance),
				"policy":   int64(s.Policy),
				"tag":      s.Tag,
				"node":     string(s.Node),
			}
		}
		return out
	}

	states := make([]any, len(p.States))
	for i, s := range p.States {
		states[i] = map[string]any{
			"stable_id":   s.StableID,
			"stride":      int64(s.Stride),
			"per_element": s.PerElement,
			"instance":    string(s.Instance),
			"default":     s.defaultLanes(),
		}
	}

	slots := make([]any, len(p.Slots))
	for i, s := range p.Slots {
		slots[i] = map[string]any{
			"stride":   int64(s.Stride),
			"instance": string(s.Instance),
		}
	}

	instances := make([]any, len(p.Instances))
	for i, inst := range p.Instances {
		instances[i] = map[string]any{
			"id":         string(inst.ID),
			"count":      int64(inst.Count),
			"dynamic":    inst.Dynamic,
			"count_slot": int64(inst.CountSlot),
		}
	}

	return map[string]any{
		"exprs":     exprs,
		"slots":     slots,
		"states":    states,
		"instances": instances,
		"phase1":    steps(p.Phase1),
		"phase2":    steps(p.Phase2),
	}
}

// computeHash canonicalizes the program and hashes it. Called once at
// the end of Build.
func (p *Program) computeHash() (string, error) {
	h, err := canon.Hash(canon.DomainProgram, p.CanonicalForm())
	if err != nil {
		return "", fmt.Errorf("program hash: %w", err)
	}
	return h, nil
}
