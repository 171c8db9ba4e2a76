// Package trace provides durable storage for frame traces.
//
// A trace records everything observable about a session: the programs
// installed (revisions) and, per frame, the published render buffers
// and fired events plus a content hash of the whole frame. Traces
// serve two purposes: offline inspection of a live session, and replay
// verification - re-running the same patch over the recorded
// timestamps must reproduce every frame hash bit for bit.
//
// Storage is SQLite with WAL mode for concurrent read access while the
// session writes. Lane data is serialized as canonical JSON so byte
// comparison of stored frames is meaningful.
package trace
