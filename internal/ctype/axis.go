package ctype

import "fmt"

// InstanceID names a compile-time-declared instance (an array topology).
// Cardinality "many" always carries exactly one of these.
type InstanceID string

// CardKind discriminates the three cardinality shapes.
type CardKind uint8

const (
	CardZero CardKind = iota // compile-time constant
	CardOne                  // single time-varying lane
	CardMany                 // N lanes aligned to an instance
)

// Cardinality is a resolved cardinality axis value. Instance is set iff
// Kind == CardMany.
type Cardinality struct {
	Kind     CardKind
	Instance InstanceID
}

func Zero() Cardinality { return Cardinality{Kind: CardZero} }
func One() Cardinality  { return Cardinality{Kind: CardOne} }
func Many(inst InstanceID) Cardinality {
	return Cardinality{Kind: CardMany, Instance: inst}
}

func (c Cardinality) String() string {
	switch c.Kind {
	case CardZero:
		return "zero"
	case CardOne:
		return "one"
	case CardMany:
		return fmt.Sprintf("many(%s)", c.Instance)
	default:
		return fmt.Sprintf("cardinality(%d)", c.Kind)
	}
}

// Temporality is a resolved temporality axis value.
type Temporality uint8

const (
	Continuous Temporality = iota // a value every frame
	Discrete                      // sparse, edge-triggered occurrences
)

func (t Temporality) String() string {
	if t == Discrete {
		return "discrete"
	}
	return "continuous"
}

// BindKind discriminates the binding axis shapes.
type BindKind uint8

const (
	BindUnbound BindKind = iota
	BindWeak
	BindStrong
	BindIdentity
)

// Binding is a resolved binding axis value. Referent is set iff
// Kind != BindUnbound. Binding is independent of cardinality.
type Binding struct {
	Kind     BindKind
	Referent string
}

func Unbound() Binding { return Binding{Kind: BindUnbound} }

func (b Binding) String() string {
	switch b.Kind {
	case BindUnbound:
		return "unbound"
	case BindWeak:
		return fmt.Sprintf("weak(%s)", b.Referent)
	case BindStrong:
		return fmt.Sprintf("strong(%s)", b.Referent)
	case BindIdentity:
		return fmt.Sprintf("identity(%s)", b.Referent)
	default:
		return fmt.Sprintf("binding(%d)", b.Kind)
	}
}

// Perspective and Branch are viewpoint/execution-branch identifiers.
// The current tier has a single default value (0) for both; the axis
// machinery treats them like any other axis so future tiers only add
// values, not mechanism.
type (
	Perspective int32
	Branch      int32
)

const (
	DefaultPerspective Perspective = 0
	DefaultBranch      Branch      = 0
)

// Axis is a tagged variant over one axis domain: either an unresolved
// variable or a resolved value. The zero value is the variable.
type Axis[V comparable] struct {
	val V
	set bool
}

// Var returns the unresolved variable for domain V.
func Var[V comparable]() Axis[V] { return Axis[V]{} }

// Fixed returns a resolved axis carrying v.
func Fixed[V comparable](v V) Axis[V] { return Axis[V]{val: v, set: true} }

// Resolved reports whether the axis carries a value.
func (a Axis[V]) Resolved() bool { return a.set }

// Value returns the resolved value. Calling Value on a variable is a
// programming error.
func (a Axis[V]) Value() V {
	if !a.set {
		panic("ctype: Value on unresolved axis")
	}
	return a.val
}

func (a Axis[V]) String() string {
	if !a.set {
		return "?"
	}
	return fmt.Sprintf("%v", a.val)
}
