// Package harness runs scenario files: scripted frame sequences over a
// patch, with live edits landing between frames, compared against
// golden traces.
//
// A scenario is a YAML file naming a CUE patch, a frame count and
// period, per-frame external inputs, and optional edits (patch swaps
// applied before a given frame). The harness compiles the patch,
// advances a session over the scripted frames, and returns every frame
// output and every revision installed along the way.
//
// Scenarios run with fixed revision tokens so the resulting trace is
// byte-stable. RunWithGolden serializes the trace as canonical JSON and
// compares it against testdata/golden/<name>.golden via goldie;
// regenerate with:
//
//	go test ./internal/harness -update
package harness
