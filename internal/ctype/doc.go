// Package ctype defines the canonical type of every port and wire in a
// patch: a payload kind plus a five-axis extent.
//
// A value's payload describes its scalar/composite shape (float, vec2,
// color, ...) and fixes its storage stride. The extent describes how the
// value exists independent of its shape:
//
//   - cardinality: zero (compile-time constant), one (a single time-varying
//     lane), or many (N lanes aligned to a named instance)
//   - temporality: continuous (a value every frame) or discrete
//     (sparse, edge-triggered occurrences)
//   - binding: unbound, or a weak/strong/identity reference to a referent
//   - perspective and branch: viewpoint/execution-branch identifiers,
//     single default value in this tier
//
// Each axis is a tagged variant: either an unresolved variable or an
// explicitly resolved value. "No information yet" and "resolved to the
// default" are never the same state.
//
// Unify is the single place axis compatibility is decided. No other code
// in this repository compares axis values for compatibility.
package ctype
