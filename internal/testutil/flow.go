package testutil

// DefaultPassID is used when a scenario does not name one.
const DefaultPassID = "test-pass-default"

// FixedPassGenerator stamps every pass with the same ID, which keeps golden
// traces stable across passes. Unlike engine.FixedGenerator it never runs out.
type FixedPassGenerator struct {
	id string
}

// NewFixedPassGenerator returns a generator for id, or DefaultPassID when id
// is empty.
func NewFixedPassGenerator(id string) *FixedPassGenerator {
	if id == "" {
		id = DefaultPassID
	}
	return &FixedPassGenerator{id: id}
}

func (g *FixedPassGenerator) Generate() string { return g.id }
