package runtime

import (
	"github.com/waveline/strobe/internal/continuity"
	"github.com/waveline/strobe/internal/lower"
)

// Revision identifies one installed program.
type Revision struct {
	Seq   int64  // install order within the session
	Token string // globally unique install token
	Hash  string // content hash of the installed program
}

// Session owns a live program/state pair and performs hot swaps. A
// session is single-writer: the host calls Advance and Install from
// one goroutine, with installs landing between frames. Gauges and the
// timeline survive every swap; state cells migrate by stable identity.
type Session struct {
	clock  *Clock
	tokens TokenGenerator

	rev   Revision
	state *State
}

// NewSession starts a session on prog with fresh state.
func NewSession(prog *lower.Program, tokens TokenGenerator) *Session {
	s := &Session{
		clock:  NewClock(),
		tokens: tokens,
	}
	s.rev = Revision{Seq: s.clock.Next(), Token: tokens.Generate(), Hash: prog.Hash}
	s.state = NewState(prog)
	return s
}

// Advance runs one frame of the current program.
func (s *Session) Advance(in FrameInput) (*FrameOutput, error) {
	return s.state.Advance(in)
}

// Install swaps in a new program between frames. State cells carry
// over by stable identity, gauges carry over untouched, and the frame
// counter and timeline continue uninterrupted. Returned issues list
// cells that restarted at their defaults.
func (s *Session) Install(prog *lower.Program) (Revision, []continuity.Issue) {
	cells, issues := continuity.Migrate(prog, s.state.Export())
	s.state = NewStateFrom(prog, cells, s.state.Gauges(),
		s.state.Frame(), s.state.LastTime(), s.state.Started())
	s.rev = Revision{Seq: s.clock.Next(), Token: s.tokens.Generate(), Hash: prog.Hash}
	return s.rev, issues
}

// InstallIf swaps in prog only when base still names the live
// revision. A compile that raced with another install is stale; the
// caller should recompile against the current revision rather than
// clobber a newer program.
func (s *Session) InstallIf(base int64, prog *lower.Program) (Revision, []continuity.Issue, bool) {
	if base != s.rev.Seq {
		return s.rev, nil, false
	}
	rev, issues := s.Install(prog)
	return rev, issues, true
}

// Revision returns the live revision.
func (s *Session) Revision() Revision { return s.rev }

// State returns the live state, for inspection and tracing.
func (s *Session) State() *State { return s.state }
