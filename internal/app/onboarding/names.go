package onboarding

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	adjectives = []string{"Happy", "Shiny", "Brave", "Clever", "Swift", "Calm", "Mighty", "Witty", "Sly", "Wild"}
	nouns      = []string{"Panda", "Tiger", "Eagle", "Dolphin", "Wolf", "Otter", "Falcon", "Bear", "Fox", "Lion"}
)

// NameGenerator produces friendly display names such as "SwiftOtter4821". It is safe for concurrent use.
type NameGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewNameGenerator returns a generator using rng, or a time-seeded source when rng is nil.
func NewNameGenerator(rng *rand.Rand) *NameGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &NameGenerator{rng: rng}
}

// Next returns a new friendly name.
func (g *NameGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	adj := adjectives[g.rng.Intn(len(adjectives))]
	noun := nouns[g.rng.Intn(len(nouns))]
	num := g.rng.Intn(9000) + 1000
	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
