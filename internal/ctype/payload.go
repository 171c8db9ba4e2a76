package ctype

import "fmt"

// Payload identifies the scalar/composite shape of a value.
// The set is closed: the compiler, lowering, and executor all switch
// exhaustively over it.
type Payload uint8

const (
	PayloadInvalid Payload = iota
	PayloadFloat
	PayloadInt
	PayloadBool
	PayloadVec2
	PayloadVec3
	PayloadColor
	PayloadShape
	PayloadToken
)

// Stride returns the storage width of a payload in float64 lanes.
// Stride is a pure function of the payload kind alone; it is never
// inferred from context.
func (p Payload) Stride() int {
	switch p {
	case PayloadFloat, PayloadInt, PayloadBool:
		return 1
	case PayloadVec2:
		return 2
	case PayloadVec3:
		return 3
	case PayloadColor:
		return 4
	case PayloadShape, PayloadToken:
		// Handles into side tables, one lane each.
		return 1
	default:
		panic(fmt.Sprintf("ctype: stride of invalid payload %d", p))
	}
}

func (p Payload) String() string {
	switch p {
	case PayloadFloat:
		return "float"
	case PayloadInt:
		return "int"
	case PayloadBool:
		return "bool"
	case PayloadVec2:
		return "vec2"
	case PayloadVec3:
		return "vec3"
	case PayloadColor:
		return "color"
	case PayloadShape:
		return "shape"
	case PayloadToken:
		return "token"
	default:
		return fmt.Sprintf("payload(%d)", p)
	}
}

// ParsePayload maps a payload name (as written in patch files) back to
// its kind. Returns false for unknown names.
func ParsePayload(s string) (Payload, bool) {
	switch s {
	case "float":
		return PayloadFloat, true
	case "int":
		return PayloadInt, true
	case "bool":
		return PayloadBool, true
	case "vec2":
		return PayloadVec2, true
	case "vec3":
		return PayloadVec3, true
	case "color":
		return PayloadColor, true
	case "shape":
		return PayloadShape, true
	case "token":
		return PayloadToken, true
	}
	return PayloadInvalid, false
}
