package feedorder

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"dealfeed/internal/domain/value"
)

// ratioEpsilon absorbs float error in total*ratio, so 100*0.07 counts as 7.
const ratioEpsilon = 1e-9

// Allocation is the number of items each source contributes to the feed.
type Allocation map[value.Source]int

func (a Allocation) Total() int {
	total := 0
	for _, n := range a {
		total += n
	}

	return total
}

// Availability is how many items a source offers.
type Availability struct {
	Source value.Source
	Count  int
}

// Allocate splits every available item between sources, so the result
// always sums to the size of the pool. Quotas then only shape the passes,
// not the outcome; see AllocateN.
func Allocate(available []Availability, policy value.FeedPolicy) Allocation {
	return AllocateN(available, totalAvailable(available), policy)
}

// AllocateN splits size slots between sources (size is clamped to
// [0, sum(available)]).
//
// Passes, in order:
//  1. every source with a quota gets ceil(total*MinRatio), capped by availability;
//  2. groups below ceil(total*MinTotalRatio) are topped up in their listed order;
//  3. free slots go to sources with the most remaining items, bounded by
//     floor(total*MaxRatio) and by every group ceiling containing the source;
//  4. whatever is still free is handed out without ratio limits.
//
// Minimums are never taken back: if passes 1-2 push a source past its
// ceiling, the excess stays and pass 3 simply skips it. For the same reason
// the result can exceed size when the minimum ratios sum past 1.
func AllocateN(available []Availability, size int, policy value.FeedPolicy) Allocation {
	total := min(max(size, 0), totalAvailable(available))
	alloc := make(Allocation, len(available))

	if total == 0 {
		return alloc
	}

	counts := make(map[value.Source]int, len(available))
	for _, a := range available {
		counts[a.Source] += a.Count
	}

	for _, a := range available {
		quota, ok := policy.Quotas[a.Source]
		if !ok {
			alloc[a.Source] = 0
			continue
		}

		alloc[a.Source] = min(ceilRatio(total, quota.MinRatio), counts[a.Source])
	}

	for _, group := range policy.Groups {
		deficit := ceilRatio(total, group.MinTotalRatio) - groupSum(alloc, group)

		for _, src := range group.Sources {
			if deficit <= 0 {
				break
			}

			if add := min(deficit, counts[src]-alloc[src]); add > 0 {
				alloc[src] += add
				deficit -= add
			}
		}
	}

	free := total - alloc.Total()

	for _, src := range byRemaining(available, counts, alloc) {
		if free <= 0 {
			break
		}

		add := min(free, counts[src]-alloc[src], sourceCap(total, src, policy)-alloc[src])

		for _, group := range policy.Groups {
			if group.MaxTotalRatio > 0 && group.Has(src) {
				add = min(add, floorRatio(total, group.MaxTotalRatio)-groupSum(alloc, group))
			}
		}

		if add > 0 {
			alloc[src] += add
			free -= add
		}
	}

	for _, src := range byRemaining(available, counts, alloc) {
		if free <= 0 {
			break
		}

		if add := min(free, counts[src]-alloc[src]); add > 0 {
			alloc[src] += add
			free -= add
		}
	}

	return alloc
}

// byRemaining lists sources that still have unallocated items, most first.
// Ties keep the order of available.
func byRemaining(available []Availability, counts map[value.Source]int, alloc Allocation) []value.Source {
	sources := lo.Uniq(lo.Map(available, func(a Availability, _ int) value.Source { return a.Source }))
	sources = lo.Filter(sources, func(src value.Source, _ int) bool { return counts[src]-alloc[src] > 0 })

	slices.SortStableFunc(sources, func(a, b value.Source) int {
		return (counts[b] - alloc[b]) - (counts[a] - alloc[a])
	})

	return sources
}

func totalAvailable(available []Availability) int {
	return lo.SumBy(available, func(a Availability) int { return max(a.Count, 0) })
}

func sourceCap(total int, src value.Source, policy value.FeedPolicy) int {
	quota, ok := policy.Quotas[src]
	if !ok || quota.MaxRatio <= 0 {
		return total
	}

	return floorRatio(total, quota.MaxRatio)
}

func groupSum(alloc Allocation, group value.SourceGroup) int {
	return lo.SumBy(lo.Uniq(group.Sources), func(src value.Source) int { return alloc[src] })
}

func ceilRatio(total int, ratio float64) int {
	return max(int(math.Ceil(float64(total)*ratio-ratioEpsilon)), 0)
}

func floorRatio(total int, ratio float64) int {
	return max(int(math.Floor(float64(total)*ratio+ratioEpsilon)), 0)
}
