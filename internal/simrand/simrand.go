package simrand

import (
	"hash/fnv"
	"math/rand"
)

// DefaultSeed is used whenever a caller supplies an empty seed string.
const DefaultSeed = "emberfall"

// SeedValue derives a stable int64 seed from a root seed string and a label.
// Labels keep independent subsystems (combat rolls, market jitter, sampler
// shuffles) decorrelated while still reproducible from one root seed.
func SeedValue(rootSeed, label string) int64 {
	if rootSeed == "" {
		rootSeed = DefaultSeed
	}
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// New returns a rand.Rand seeded from the root seed and label.
func New(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(SeedValue(rootSeed, label)))
}

// Float returns the next float in [0, 1), tolerating a nil generator so
// callers that never configured randomness still behave deterministically.
func Float(rng *rand.Rand) float64 {
	if rng == nil {
		return New(DefaultSeed, "fallback").Float64()
	}
	return rng.Float64()
}

// Range returns a uniform draw in [min, max).
func Range(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + Float(rng)*(max-min)
}

// IntBetween returns a uniform integer draw in [min, max].
func IntBetween(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	if rng == nil {
		return min
	}
	return min + rng.Intn(max-min+1)
}
