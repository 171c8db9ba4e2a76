package blocks

import (
	"fmt"

	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// Registry holds block declarations, lowering functions, and payload
// conversion rules. It implements patch.Catalog; its Lower method
// satisfies lower.LookupFunc.
//
// A Registry is built once and read concurrently; Register calls after
// handing it to a compiler are a programming error.
type Registry struct {
	decls    map[string]*patch.BlockDecl
	funcs    map[string]lower.Func
	adapters map[convKey]string
}

type convKey struct {
	from, to ctype.Payload
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		decls:    make(map[string]*patch.BlockDecl),
		funcs:    make(map[string]lower.Func),
		adapters: make(map[convKey]string),
	}
}

// Builtin returns a registry populated with every built-in block.
func Builtin() *Registry {
	r := New()
	registerSources(r)
	registerMath(r)
	registerStateful(r)
	registerArrays(r)
	registerRender(r)
	registerAdapters(r)
	registerComposites(r)
	return r
}

// Register adds one block kind. Registering a kind twice panics: kinds
// are global names and a silent overwrite would corrupt every patch
// that uses the first registration.
func (r *Registry) Register(decl *patch.BlockDecl, f lower.Func) {
	if _, dup := r.decls[decl.Kind]; dup {
		panic(fmt.Sprintf("blocks: duplicate kind %q", decl.Kind))
	}
	r.decls[decl.Kind] = decl
	if f != nil {
		r.funcs[decl.Kind] = f
	}
}

// RegisterAdapter records that the given block kind converts payload
// from to payload to. The kind must also be registered as a block.
func (r *Registry) RegisterAdapter(from, to ctype.Payload, kind string) {
	key := convKey{from, to}
	if prev, dup := r.adapters[key]; dup {
		panic(fmt.Sprintf("blocks: conversion %s->%s already handled by %q", from, to, prev))
	}
	r.adapters[key] = kind
}

// Decl implements patch.Catalog.
func (r *Registry) Decl(kind string) (*patch.BlockDecl, bool) {
	d, ok := r.decls[kind]
	return d, ok
}

// AdapterFor implements patch.Catalog.
func (r *Registry) AdapterFor(from, to ctype.Payload) (string, bool) {
	kind, ok := r.adapters[convKey{from, to}]
	return kind, ok
}

// Lower resolves a kind to its lowering function (lower.LookupFunc).
func (r *Registry) Lower(kind string) (lower.Func, bool) {
	f, ok := r.funcs[kind]
	return f, ok
}

// paramLanes reads a node parameter as a lane vector of exactly stride
// lanes: vec params are padded or truncated, num params broadcast into
// lane 0, anything else is all zeros.
func paramLanes(n *patch.Node, name string, stride int) []float64 {
	out := make([]float64, stride)
	p, ok := n.Params[name]
	if !ok {
		return out
	}
	switch p.Kind {
	case "vec":
		copy(out, p.Vec)
	case "num":
		out[0] = p.Num
	}
	return out
}
