// Package depgraph builds the execution dependency graph over a
// normalized, typed patch and classifies its cycles.
//
// Every edge makes the consumer depend on the producer, except edges
// into latched inputs: those are read only by the consumer's Phase-2
// state write, so within a frame they impose no order. Strongly
// connected components are found with Tarjan's algorithm; a component
// forming a cycle is legal only if dropping its latched edges breaks
// it, because only a previous-frame state read can break the causal
// loop. A cycle that survives into the within-frame graph is an illegal
// combinatorial cycle and is reported, never silently accepted.
//
// The package also produces the Phase-1 evaluation order: the remaining
// acyclic within-frame graph is ordered with a deterministic
// topological sort that breaks ties by node declaration order.
package depgraph
