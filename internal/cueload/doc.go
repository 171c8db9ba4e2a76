// Package cueload reads patch files written in CUE into snapshots.
//
// A patch file declares a single top-level "patch" struct:
//
//	patch: {
//		nodes: {
//			osc:  {block: "sin"}
//			gain: {block: "number", params: {value: 0.5}}
//			out:  {block: "render"}
//		}
//		wires: [
//			{from: "osc.out", to: "out.in"},
//		]
//	}
//
// Node labels become node ids; CUE's lexical field order keeps node
// order deterministic across loads. Parameters map by value shape:
// numbers, strings, and number lists.
//
// Loading uses the CUE SDK's Go API directly and collects every error
// it can find rather than stopping at the first, matching the
// compiler's collect-all diagnostic policy.
package cueload
