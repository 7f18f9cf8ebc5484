package feedorder

import (
	"slices"

	"github.com/samber/lo"

	"dealfeed/internal/domain/value"
)

// Arrange is the quota-constrained feed order: items are grouped and
// shuffled per source, counts are allocated under policy, and the selected
// items are interleaved so that a source repeats only when nothing else is
// left. items is not modified.
func Arrange[T Sourced](items []T, policy value.FeedPolicy, rnd Random) ([]T, Allocation) {
	if len(items) == 0 {
		return []T{}, Allocation{}
	}

	pools := groupBySource(items)
	for _, pool := range pools {
		shuffle(pool.Items, rnd)
	}

	alloc := Allocate(lo.Map(pools, func(p Pool[T], _ int) Availability {
		return Availability{Source: p.Source, Count: len(p.Items)}
	}), policy)

	selected := make([]Pool[T], 0, len(pools))

	for _, pool := range pools {
		if n := alloc[pool.Source]; n > 0 {
			selected = append(selected, Pool[T]{Source: pool.Source, Items: pool.Items[:n]})
		}
	}

	return Interleave(selected), alloc
}

// Interleave drains one FIFO queue per pool. Each step takes the head of the
// fullest queue other than the one used last (earliest pool on ties); the
// last-used queue is taken again only when every other queue is empty.
// The result is fully determined by pools.
func Interleave[T any](pools []Pool[T]) []T {
	queues := make([][]T, 0, len(pools))
	total := 0

	for _, pool := range pools {
		if len(pool.Items) == 0 {
			continue
		}

		queues = append(queues, slices.Clone(pool.Items))
		total += len(pool.Items)
	}

	out := make([]T, 0, total)
	last := -1

	for len(out) < total {
		pick := -1

		for i, queue := range queues {
			if i == last || len(queue) == 0 {
				continue
			}

			if pick == -1 || len(queue) > len(queues[pick]) {
				pick = i
			}
		}

		if pick == -1 {
			pick = last
		}

		out = append(out, queues[pick][0])
		queues[pick] = queues[pick][1:]
		last = pick
	}

	return out
}
