package cpu

import (
	"math/rand/v2"
)

// Random supplies the bytes for the rnd instruction.
type Random interface {
	// Byte returns a uniformly random byte ANDed with mask.
	Byte(mask byte) byte
}

type pcgRandom struct {
	rng *rand.Rand
}

// NewRandom returns a Random seeded with seed.
func NewRandom(seed uint64) Random {
	return &pcgRandom{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *pcgRandom) Byte(mask byte) byte {
	return byte(r.rng.Uint32()) & mask
}
