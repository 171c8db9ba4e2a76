// Package continuity keeps visible motion smooth across the two kinds
// of discontinuity a live patch produces: element count changes within
// a program, and hot swaps between programs.
//
// Gauges are per-element smoothers keyed by stable element identity.
// A gauge eases its displayed value toward the computed target every
// frame; because the key never encodes a slot number or a frame
// position, the same gauge keeps easing across recompiles. Gauges are
// owned by the session, not the program, so a swap never resets them.
//
// Migrate carries persistent state cells from an old program to a new
// one by stable state identity: matching cells copy, new cells start
// at their defaults, orphaned cells drop. A cell whose shape changed
// between programs is reported and restarts at its default; migration
// itself never fails.
package continuity
