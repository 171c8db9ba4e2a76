// Package normalize rewrites a raw user patch into canonical form.
//
// Four ordered, side-effect-free passes, each consuming the previous
// pass's snapshot and producing a new one:
//
//  1. Composite expansion: grouped blocks are replaced by their declared
//     subgraphs, with inner ids remapped per expansion site. Self-referential
//     or over-deep composites are rejected.
//  2. Default-source materialization: every unconnected input port gains a
//     derived constant node and a default-role edge, making "no connection"
//     and "explicit default" structurally identical downstream. Running the
//     pass on an already-normalized patch changes nothing.
//  3. Adapter insertion: edges between payload-incompatible ports covered by
//     a registered conversion rule gain a derived adapter node; edges with
//     no matching rule are reported, never silently dropped.
//  4. Variadic resolution: edges into variable-arity ports are rewritten to
//     indexed port names in connection order.
//
// Passes keep going after errors so the caller sees the complete set of
// diagnostics, and the whole pipeline is deterministic: identical input
// snapshots normalize to identical output snapshots.
package normalize
