package feed_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/feed"
	"dealfeed/internal/domain/service/feedorder"
	"dealfeed/internal/domain/value"
	"dealfeed/pkg/tests"
)

func deals(src value.Source, category string, n int) []entity.Deal {
	out := make([]entity.Deal, 0, n)
	for i := range n {
		out = append(out, entity.Deal{
			ID:       fmt.Sprintf("%s_%s_%d", src, category, i),
			Source:   src,
			Category: category,
		})
	}

	return out
}

func dense(rq *require.Assertions, orders []int) {
	seen := make(map[int]bool, len(orders))
	for _, o := range orders {
		rq.GreaterOrEqual(o, 0)
		rq.Less(o, len(orders))
		rq.False(seen[o], "rank %d repeated", o)
		seen[o] = true
	}
}

func TestCompose(t *testing.T) {
	testCases := []struct {
		name           string
		deals          []entity.Deal
		wantCategories int
		wantAllocation feedorder.Allocation
	}{
		{
			name:           "empty pool",
			wantCategories: 0,
			wantAllocation: feedorder.Allocation{},
		},
		{
			name: "mixed pool",
			deals: append(append(append(
				deals("naver", "food", 12),
				deals("coupang", "food", 4)...),
				deals("coupang", "digital", 9)...),
				deals("", "", 3)...),
			wantCategories: 3,
			wantAllocation: feedorder.Allocation{"naver": 12, "coupang": 13, "other": 3},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			got := feed.Compose(tc.deals, value.FeedPolicy{}, tests.NewSeededRandomizer(1))

			rq.Len(got.Ranks, len(tc.deals))
			rq.Equal(tc.wantCategories, got.Categories)
			rq.Equal(tc.wantAllocation, got.Allocation)

			global := make([]int, 0, len(got.Ranks))
			byCategory := make(map[string][]int)
			categoryOf := make(map[string]string, len(tc.deals))

			for _, d := range tc.deals {
				categoryOf[d.ID] = d.CategoryTag()
			}

			for i, r := range got.Ranks {
				rq.Equal(i, r.FeedOrder)
				global = append(global, r.FeedOrder)
				byCategory[categoryOf[r.DealID]] = append(byCategory[categoryOf[r.DealID]], r.CategoryFeedOrder)
			}

			dense(rq, global)

			for category, orders := range byCategory {
				rq.NotEmpty(category)
				dense(rq, orders)
			}
		})
	}
}

func TestCompose_UncategorizedScope(t *testing.T) {
	rq := require.New(t)

	pool := append(deals("naver", "", 2), deals("naver", value.CategoryUncategorized, 2)...)
	got := feed.Compose(pool, value.FeedPolicy{}, tests.NewSeededRandomizer(2))

	rq.Equal(1, got.Categories)

	orders := make([]int, 0, len(got.Ranks))
	for _, r := range got.Ranks {
		orders = append(orders, r.CategoryFeedOrder)
	}

	rq.ElementsMatch([]int{0, 1, 2, 3}, orders)
}
