package feedorder

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

type positioned[T any] struct {
	item T
	key  float64
}

// BalancedShuffle orders items so that every source is randomized internally
// and spread across the whole output: a source with k of N items lands
// roughly every N/k positions, with jitter of up to half a step blurring the
// boundaries between sources. items is not modified.
func BalancedShuffle[T Sourced](items []T, rnd Random) []T {
	if len(items) == 0 {
		return []T{}
	}

	total := float64(len(items))
	all := make([]positioned[T], 0, len(items))

	for _, pool := range groupBySource(items) {
		shuffle(pool.Items, rnd)

		step := total / float64(len(pool.Items))

		for i, item := range pool.Items {
			all = append(all, positioned[T]{
				item: item,
				key:  float64(i)*step + rnd.NextFloat()*step/2, //nolint:mnd // half a step
			})
		}
	}

	slices.SortStableFunc(all, func(a, b positioned[T]) int {
		return cmp.Compare(a.key, b.key)
	})

	return lo.Map(all, func(p positioned[T], _ int) T { return p.item })
}
