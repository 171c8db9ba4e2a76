// Package patch defines the compiler-facing model of a user patch: nodes,
// ports, edges, instances, and the block catalog contract.
//
// A Snapshot is an immutable view of the patch handed to the compiler.
// The compiler never mutates a snapshot; every normalization pass builds
// a new one. Types are resolved once by the solver and live on ports -
// edges never carry type information themselves.
//
// The catalog is an external collaborator: for each block kind it declares
// port names and type constraints, statefulness, default values, and (for
// composite blocks) the internal subgraph. Block behavior beyond that
// contract is supplied by the lowering functions registered alongside the
// catalog (see internal/blocks, internal/lower).
//
// Diagnostics are collected, not thrown: every compile error is
// attributable to a specific node/port, and the pipeline gathers all of
// them before aborting so a UI can show the complete picture.
package patch
