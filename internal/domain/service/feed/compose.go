package feed

import (
	"slices"

	"github.com/samber/lo"

	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/feedorder"
	"dealfeed/internal/domain/value"
)

type Composition struct {
	Ranks      []entity.FeedRank
	Allocation feedorder.Allocation
	Categories int
}

// Compose ranks every deal twice: globally with the quota-constrained
// arrangement, and inside its category with the balanced shuffle. Deals
// without a category share one "uncategorized" scope. Ranks come back in
// global order.
func Compose(deals []entity.Deal, policy value.FeedPolicy, rnd feedorder.Random) Composition {
	ordered, alloc := feedorder.Arrange(deals, policy, rnd)

	ranks := make([]entity.FeedRank, len(ordered))
	index := make(map[string]int, len(ordered))

	for i, deal := range ordered {
		ranks[i] = entity.FeedRank{DealID: deal.ID, FeedOrder: i}
		index[deal.ID] = i
	}

	byCategory := lo.GroupBy(deals, func(d entity.Deal) string { return d.CategoryTag() })

	categories := lo.Keys(byCategory)
	slices.Sort(categories)

	for _, category := range categories {
		for i, deal := range feedorder.BalancedShuffle(byCategory[category], rnd) {
			ranks[index[deal.ID]].CategoryFeedOrder = i
		}
	}

	return Composition{
		Ranks:      ranks,
		Allocation: alloc,
		Categories: len(categories),
	}
}
