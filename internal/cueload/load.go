package cueload

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/waveline/strobe/internal/patch"
)

// Error code constants, shared by every loader entry point.
const (
	ErrCodeNotFound   = "L001" // path not found or unreadable
	ErrCodeBuild      = "L002" // CUE compile/build failed
	ErrCodeShape      = "L003" // patch structure malformed
	ErrCodeBadWire    = "L004" // wire endpoint unparseable
	ErrCodeBadParam   = "L005" // parameter value unsupported
	ErrCodeBadGraph   = "L006" // snapshot validation failed
	ErrCodeNoPatch    = "L007" // no top-level patch struct
)

// LoadError is one loader finding, with CUE position when available.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadFile reads one CUE patch file. Errors are collected, not
// fail-fast; a nil snapshot means nothing loadable was found.
func LoadFile(path string) (*patch.Snapshot, []error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}}
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuild, Message: fmt.Sprintf("compiling %s: %v", path, err)}}
	}
	return FromValue(v)
}

// FromValue decodes a built CUE value holding a top-level patch struct.
func FromValue(v cue.Value) (*patch.Snapshot, []error) {
	var errs []error

	root := v.LookupPath(cue.ParsePath("patch"))
	if !root.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeNoPatch, Message: "no top-level \"patch\" struct", Pos: v.Pos()}}
	}

	var nodes []patch.Node
	nodesVal := root.LookupPath(cue.ParsePath("nodes"))
	if nodesVal.Exists() {
		iter, err := nodesVal.Fields()
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeShape, Message: fmt.Sprintf("iterating nodes: %v", err), Pos: nodesVal.Pos()})
		} else {
			for iter.Next() {
				n, nerrs := decodeNode(iter.Label(), iter.Value())
				errs = append(errs, nerrs...)
				if n != nil {
					nodes = append(nodes, *n)
				}
			}
		}
	}

	var edges []patch.Edge
	wiresVal := root.LookupPath(cue.ParsePath("wires"))
	if wiresVal.Exists() {
		iter, err := wiresVal.List()
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeShape, Message: fmt.Sprintf("wires is not a list: %v", err), Pos: wiresVal.Pos()})
		} else {
			for iter.Next() {
				e, eerrs := decodeWire(iter.Value())
				errs = append(errs, eerrs...)
				if e != nil {
					edges = append(edges, *e)
				}
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	snap, err := patch.NewSnapshot(nodes, edges, nil)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBadGraph, Message: err.Error(), Pos: root.Pos()}}
	}
	return snap, nil
}

func decodeNode(label string, v cue.Value) (*patch.Node, []error) {
	var errs []error

	blockVal := v.LookupPath(cue.ParsePath("block"))
	if !blockVal.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeShape, Message: fmt.Sprintf("node %q: block is required", label), Pos: v.Pos()}}
	}
	block, err := blockVal.String()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeShape, Message: fmt.Sprintf("node %q: block: %v", label, err), Pos: blockVal.Pos()}}
	}

	n := &patch.Node{ID: patch.NodeID(label), Block: block}

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		iter, perr := paramsVal.Fields()
		if perr != nil {
			return nil, []error{&LoadError{Code: ErrCodeBadParam, Message: fmt.Sprintf("node %q: params: %v", label, perr), Pos: paramsVal.Pos()}}
		}
		n.Params = make(map[string]patch.Param)
		for iter.Next() {
			p, perr := decodeParam(iter.Value())
			if perr != nil {
				errs = append(errs, &LoadError{
					Code:    ErrCodeBadParam,
					Message: fmt.Sprintf("node %q: param %q: %v", label, iter.Label(), perr),
					Pos:     iter.Value().Pos(),
				})
				continue
			}
			n.Params[iter.Label()] = p
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return n, nil
}

// decodeParam maps a CUE value onto the parameter shapes patches
// support: number, string, or list of numbers.
func decodeParam(v cue.Value) (patch.Param, error) {
	switch v.Kind() {
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return patch.Param{}, err
		}
		return patch.NumParam(f), nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return patch.Param{}, err
		}
		return patch.StrParam(s), nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return patch.Param{}, err
		}
		var lanes []float64
		for iter.Next() {
			f, err := iter.Value().Float64()
			if err != nil {
				return patch.Param{}, err
			}
			lanes = append(lanes, f)
		}
		return patch.VecParam(lanes), nil

	default:
		return patch.Param{}, fmt.Errorf("unsupported value kind %s", v.Kind())
	}
}

func decodeWire(v cue.Value) (*patch.Edge, []error) {
	ref := func(field string) (patch.PortRef, *LoadError) {
		fv := v.LookupPath(cue.ParsePath(field))
		if !fv.Exists() {
			return patch.PortRef{}, &LoadError{Code: ErrCodeBadWire, Message: fmt.Sprintf("wire: %s is required", field), Pos: v.Pos()}
		}
		s, err := fv.String()
		if err != nil {
			return patch.PortRef{}, &LoadError{Code: ErrCodeBadWire, Message: fmt.Sprintf("wire %s: %v", field, err), Pos: fv.Pos()}
		}
		node, port, ok := strings.Cut(s, ".")
		if !ok || node == "" || port == "" {
			return patch.PortRef{}, &LoadError{Code: ErrCodeBadWire, Message: fmt.Sprintf("wire %s: %q is not node.port", field, s), Pos: fv.Pos()}
		}
		return patch.PortRef{Node: patch.NodeID(node), Port: port}, nil
	}

	var errs []error
	from, ferr := ref("from")
	if ferr != nil {
		errs = append(errs, ferr)
	}
	to, terr := ref("to")
	if terr != nil {
		errs = append(errs, terr)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	e := &patch.Edge{From: from, To: to, Role: patch.EdgeUser, Enabled: true}
	if dv := v.LookupPath(cue.ParsePath("disabled")); dv.Exists() {
		disabled, err := dv.Bool()
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeBadWire, Message: fmt.Sprintf("wire disabled: %v", err), Pos: dv.Pos()}}
		}
		e.Enabled = !disabled
	}
	return e, nil
}
