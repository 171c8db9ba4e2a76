package runtime

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator mints revision tokens for program installs.
// Implemented by UUIDv7Generator (production) and FixedGenerator
// (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 revision tokens, so
// tokens from one session sort in install order even across restarts.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent
// use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 in hyphenated form.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tokens for testing, so golden
// traces stay byte-stable.
//
// Thread-safety: FixedGenerator is safe for concurrent use via an
// internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	next   int
}

// NewFixedGenerator creates a generator that returns tokens in order.
// It panics when exhausted: a test that installs more programs than it
// planned for is broken.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	t := g.tokens[g.next]
	g.next++
	return t
}
