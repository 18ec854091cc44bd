package brackets

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RandomSource shuffles a sequence in place through the swap callback.
// *rand.Rand satisfies it.
type RandomSource interface {
	Shuffle(n int, swap func(i, j int))
}

// lockedSource lets several tournaments share one seeded generator.
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (s *lockedSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}

// NewSeededSource returns a deterministic, goroutine-safe source.
func NewSeededSource(seed uint64) RandomSource {
	return &lockedSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeededSource is used when no seed is configured.
func NewTimeSeededSource() RandomSource {
	return NewSeededSource(uint64(time.Now().UnixNano()))
}
