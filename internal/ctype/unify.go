package ctype

import "fmt"

// AxisName identifies which axis a unification outcome refers to.
type AxisName string

const (
	AxisPayload     AxisName = "payload"
	AxisCardinality AxisName = "cardinality"
	AxisTemporality AxisName = "temporality"
	AxisBinding     AxisName = "binding"
	AxisPerspective AxisName = "perspective"
	AxisBranch      AxisName = "branch"
)

// Conflict reports that two resolved values on the same axis disagree.
// The solver attaches the two ports involved before surfacing it as a
// compile diagnostic; ctype itself knows nothing about ports.
type Conflict struct {
	Axis AxisName
	A, B string // stringified resolved values
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("%s axis conflict: %s vs %s", c.Axis, c.A, c.B)
}

// Unify merges two axis terms on one domain.
//
//	variable    + variable    -> variable
//	variable    + resolved(X) -> resolved(X)
//	resolved(X) + resolved(X) -> resolved(X)
//	resolved(X) + resolved(Y) -> Conflict (X != Y)
//
// Unify is pure, total over its domain, commutative, and associative.
// It is the only place axis compatibility is decided.
func Unify[V comparable](name AxisName, a, b Axis[V]) (Axis[V], *Conflict) {
	switch {
	case !a.set:
		return b, nil
	case !b.set:
		return a, nil
	case a.val == b.val:
		return a, nil
	default:
		return Axis[V]{}, &Conflict{
			Axis: name,
			A:    fmt.Sprintf("%v", a.val),
			B:    fmt.Sprintf("%v", b.val),
		}
	}
}

// UnifyType unifies two canonical types axis by axis. The first axis to
// conflict is reported; axes are checked in a fixed order so the reported
// conflict is deterministic.
func UnifyType(a, b Type) (Type, *Conflict) {
	var out Type
	var c *Conflict

	if out.Payload, c = Unify(AxisPayload, a.Payload, b.Payload); c != nil {
		return Type{}, c
	}
	if out.Extent.Card, c = Unify(AxisCardinality, a.Extent.Card, b.Extent.Card); c != nil {
		return Type{}, c
	}
	if out.Extent.Temporal, c = Unify(AxisTemporality, a.Extent.Temporal, b.Extent.Temporal); c != nil {
		return Type{}, c
	}
	if out.Extent.Bind, c = Unify(AxisBinding, a.Extent.Bind, b.Extent.Bind); c != nil {
		return Type{}, c
	}
	if out.Extent.Perspective, c = Unify(AxisPerspective, a.Extent.Perspective, b.Extent.Perspective); c != nil {
		return Type{}, c
	}
	if out.Extent.Branch, c = Unify(AxisBranch, a.Extent.Branch, b.Extent.Branch); c != nil {
		return Type{}, c
	}
	return out, nil
}
