package feedorder

import "dealfeed/internal/domain/value"

// Sourced is anything tagged with the source it came from.
type Sourced interface {
	SourceTag() value.Source
}

// Pool holds the items of one source.
type Pool[T any] struct {
	Source value.Source
	Items  []T
}

// groupBySource partitions items into fresh slices, sources in order of
// first appearance.
func groupBySource[T Sourced](items []T) []Pool[T] {
	index := make(map[value.Source]int)
	pools := make([]Pool[T], 0)

	for _, item := range items {
		src := item.SourceTag()

		i, ok := index[src]
		if !ok {
			i = len(pools)
			index[src] = i
			pools = append(pools, Pool[T]{Source: src})
		}

		pools[i].Items = append(pools[i].Items, item)
	}

	return pools
}

// shuffle is an in-place Fisher–Yates permutation.
func shuffle[T any](items []T, rnd Random) {
	for i := len(items) - 1; i > 0; i-- {
		j := intn(rnd, i+1)
		items[i], items[j] = items[j], items[i]
	}
}
