// Package solve resolves the canonical type of every port in a
// normalized patch.
//
// The solver is union-find over axis variables. Each port contributes one
// variable per axis domain (payload plus the five extent axes); block
// declarations can couple ports of one node into a shared variable group
// ("inputs and output carry the same payload"), and every edge unions the
// two endpoint variables across all domains. Resolved values attach to
// union-find representatives; merging two resolved-but-different values
// is an axis conflict attributed to the two ports involved.
//
// Defaults (continuous temporality, unbound binding, zero perspective and
// branch, cardinality one) are applied exactly once, after all unification
// requests have been processed - never interleaved with unification. An
// axis that is still unresolved after defaulting and has no default
// (payload) is an unresolved-required-axis error, attributed to a port.
// The solver never guesses silently.
package solve
