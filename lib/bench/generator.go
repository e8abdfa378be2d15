package bench

import "math/rand"

// DefaultSeed is the seed used when none is configured
const DefaultSeed uint64 = 134

// KeyGenerator produces pseudo random byte strings. Two generators with the same
// seed produce the same output for the same sequence of length requests.
// A KeyGenerator is not safe for concurrent use.
type KeyGenerator struct {
	rng *rand.Rand
}

// NewKeyGenerator creates a generator seeded with seed
func NewKeyGenerator(seed uint64) *KeyGenerator {
	return &KeyGenerator{rng: rand.New(rand.NewSource(int64(seed)))}
}

// Bytes returns n uniformly distributed random bytes (an empty slice for n <= 0)
func (g *KeyGenerator) Bytes(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	b := make([]byte, n)
	// (*rand.Rand).Read always fills b and never fails
	_, _ = g.rng.Read(b)
	return b
}
