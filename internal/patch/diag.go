package patch

import (
	"fmt"
	"sort"
	"strings"
)

// Code categorizes a compile diagnostic.
type Code string

const (
	// CodeAxisConflict: two resolved type axes disagree across an edge or
	// within a node's coupling group.
	CodeAxisConflict Code = "AXIS_CONFLICT"

	// CodeUnresolvedAxis: an axis never resolved and has no applicable
	// default.
	CodeUnresolvedAxis Code = "UNRESOLVED_REQUIRED_AXIS"

	// CodeNoAdapter: an edge's types are incompatible and no conversion
	// rule applies.
	CodeNoAdapter Code = "NO_ADAPTER_FOUND"

	// CodeCombinatorialCycle: a dependency cycle not broken by any
	// latched state input.
	CodeCombinatorialCycle Code = "ILLEGAL_COMBINATORIAL_CYCLE"

	// CodeCompositeExpansion: self-referential or over-depth composite.
	CodeCompositeExpansion Code = "COMPOSITE_EXPANSION_ERROR"

	// CodeUnknownBlock: a node references a block kind the catalog does
	// not declare.
	CodeUnknownBlock Code = "UNKNOWN_BLOCK"

	// CodeBadPort: an edge references a port the block does not declare.
	CodeBadPort Code = "UNKNOWN_PORT"

	// CodeLowering: a block's lowering function rejected its context.
	CodeLowering Code = "LOWERING_ERROR"
)

// Diagnostic is one compile error, attributable to a specific node/port.
type Diagnostic struct {
	Code    Code   `json:"code"`
	Node    NodeID `json:"node,omitempty"`
	Port    string `json:"port,omitempty"`
	Other   NodeID `json:"other_node,omitempty"`
	OtherPt string `json:"other_port,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(string(d.Code))
	if d.Node != "" {
		fmt.Fprintf(&b, " at %s", d.Node)
		if d.Port != "" {
			fmt.Fprintf(&b, ".%s", d.Port)
		}
	}
	if d.Other != "" {
		fmt.Fprintf(&b, " (with %s", d.Other)
		if d.OtherPt != "" {
			fmt.Fprintf(&b, ".%s", d.OtherPt)
		}
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// DiagList collects diagnostics across passes. The pipeline never stops
// at the first error; it gathers everything so the UI can show a complete
// picture.
type DiagList []Diagnostic

func (l DiagList) Error() string {
	if len(l) == 0 {
		return "no diagnostics"
	}
	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any diagnostic carries the given code.
func (l DiagList) Has(code Code) bool {
	for _, d := range l {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Sorted returns the list ordered by (node, port, code, message) so
// identical compiles report identically ordered errors.
func (l DiagList) Sorted() DiagList {
	out := append(DiagList(nil), l...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		if a.Port != b.Port {
			return a.Port < b.Port
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
	return out
}
