package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// UUIDv7Generator issues time-ordered pass IDs, so sorting log lines by pass
// also sorts them by start time. Safe for concurrent use.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a fixed list of pass IDs, one per pass. Running
// more passes than there are IDs is a bug in the caller and panics.
type FixedGenerator struct {
	mu     sync.Mutex
	queued []string
	issued int
}

func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{queued: ids}
}

func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.queued) == 0 {
		panic(fmt.Sprintf("FixedGenerator: pass %d has no ID", g.issued+1))
	}
	id := g.queued[0]
	g.queued = g.queued[1:]
	g.issued++
	return id
}
