package testutil

import "github.com/waveline/strobe/internal/runtime"

// Ticks returns n frame inputs at a fixed timestep starting at start.
// Deterministic timestamps keep golden traces byte-stable.
func Ticks(start, dt float64, n int) []runtime.FrameInput {
	out := make([]runtime.FrameInput, n)
	for i := range out {
		out[i] = runtime.FrameInput{Time: start + float64(i)*dt}
	}
	return out
}

// Tick is one frame input at tm with optional named samples, given as
// alternating name, lanes pairs.
func Tick(tm float64, samples ...any) runtime.FrameInput {
	in := runtime.FrameInput{Time: tm}
	if len(samples) > 0 {
		in.Values = make(map[string][]float64, len(samples)/2)
		for i := 0; i+1 < len(samples); i += 2 {
			in.Values[samples[i].(string)] = samples[i+1].([]float64)
		}
	}
	return in
}
