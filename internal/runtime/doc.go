// Package runtime executes compiled programs one frame at a time.
//
// A frame is two strictly ordered phases. Phase 1 evaluates every
// expression, materializes fields, smooths continuity, detects events,
// and publishes render buffers; every state read observes the previous
// frame's value. Phase 2 commits state writes. The split is structural:
// the program carries two separate step lists, and the executor panics
// if a step kind ever appears in the wrong list, because that is a
// compiler defect, not a runtime condition.
//
// All values are float64 lanes. A scalar slot holds stride lanes; an
// instance-aligned slot holds count*stride lanes, where count is the
// instance's element count this frame. Kernels apply lane-wise and
// broadcast single-value operands across elements.
//
// The executor is single-threaded and deterministic: the same program,
// state, and inputs produce the same outputs and the same successor
// state, bit for bit.
package runtime
