package feedorder

import "math/rand/v2"

// Random is a source of uniform floats in [0, 1).
type Random interface {
	NextFloat() float64
}

type globalRandom struct{}

// NewRandom returns the production source backed by math/rand/v2.
func NewRandom() Random {
	return globalRandom{}
}

func (globalRandom) NextFloat() float64 {
	return rand.Float64() //nolint:gosec // feed order is not security sensitive
}

// intn maps a draw onto [0, n). Out-of-range draws from a broken source are
// clamped rather than trusted.
func intn(rnd Random, n int) int {
	j := int(rnd.NextFloat() * float64(n))

	return min(max(j, 0), n-1)
}
