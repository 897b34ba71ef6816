package testutil

// FixedSessionGenerator generates the same session id every time.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario with the same FixedSessionGenerator produces byte-identical
// snapshots.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a new fixed session id generator.
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
