package ctype

import "fmt"

// Extent is the five-axis descriptor of a value's existence, independent
// of its payload.
type Extent struct {
	Card        Axis[Cardinality]
	Temporal    Axis[Temporality]
	Bind        Axis[Binding]
	Perspective Axis[Perspective]
	Branch      Axis[Branch]
}

// Type is the canonical type of a port or wire: payload plus extent.
// The payload participates in unification exactly like the extent axes,
// which is what makes payload-generic blocks work.
type Type struct {
	Payload Axis[Payload]
	Extent  Extent
}

// Open returns a fully unresolved type: every axis is a variable.
func Open() Type { return Type{} }

// Concrete is a fully resolved type. Every consumer past the solver
// (lowering, the executor, the frontend result) sees only Concrete.
type Concrete struct {
	Payload     Payload     `json:"payload"`
	Card        Cardinality `json:"cardinality"`
	Temporal    Temporality `json:"temporality"`
	Bind        Binding     `json:"binding"`
	Perspective Perspective `json:"perspective"`
	Branch      Branch      `json:"branch"`
}

// Stride returns the storage width of the concrete type's payload.
func (c Concrete) Stride() int { return c.Payload.Stride() }

func (c Concrete) String() string {
	return fmt.Sprintf("%s@%s/%s", c.Payload, c.Card, c.Temporal)
}

// Of is shorthand for a type with a fixed payload, cardinality one, and
// all other axes unresolved. Most fixed block ports are declared this way.
func Of(p Payload) Type {
	return Type{
		Payload: Fixed(p),
		Extent:  Extent{Card: Fixed(One())},
	}
}

// OfCard is shorthand for a fixed payload at an explicit cardinality.
func OfCard(p Payload, c Cardinality) Type {
	return Type{
		Payload: Fixed(p),
		Extent:  Extent{Card: Fixed(c)},
	}
}
