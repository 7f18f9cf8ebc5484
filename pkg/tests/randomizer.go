package tests

import (
	"math/rand"
	"time"
)

// Randomizer is a test source of randomness. It satisfies the single-method
// random interface the feed composition engine consumes.
type Randomizer struct {
	Float64 func() float64
	Bool    func() bool
}

func NewRandomizer() Randomizer {
	return NewSeededRandomizer(time.Now().Unix())
}

// NewSeededRandomizer returns a reproducible Randomizer.
func NewSeededRandomizer(seed int64) Randomizer {
	random := rand.New(rand.NewSource(seed)) //nolint:gosec // for tests

	return Randomizer{
		Float64: random.Float64,
		Bool:    func() bool { return random.Intn(2) == 0 }, //nolint:mnd // skip
	}
}

// NewConstRandomizer always draws v. With v == 0 every Fisher–Yates swap is
// with index 0 and every jitter is zero.
func NewConstRandomizer(v float64) Randomizer {
	return Randomizer{
		Float64: func() float64 { return v },
		Bool:    func() bool { return v >= 0.5 }, //nolint:mnd // skip
	}
}

func (r Randomizer) NextFloat() float64 {
	return r.Float64()
}
