// Package lower rewrites a normalized, typed patch into the compiled
// program: an arena of immutable IR expressions plus a two-phase
// schedule.
//
// Expressions are append-only, id-indexed records created once per
// compile and never mutated; the whole arena is discarded when a new
// program replaces the old one. Mutable per-frame data (scratch slots,
// persistent state) lives in the runtime, indexed by the slot and state
// tables built here - never by direct reference into the arena.
//
// The schedule is two physically separate step sequences produced at
// compile time: Phase 1 holds every step kind except state writes, in
// topological order; Phase 2 holds only state writes. The phase
// invariant is a structural property of the schedule, not an executor
// convention.
//
// Each block kind registers a lowering function (see internal/blocks)
// that consumes resolved port types and instance context through a Ctx
// and emits expressions, steps, and state slots. State slots are keyed
// by stable state identity so hot-swap migration can map values across
// recompiles.
package lower
