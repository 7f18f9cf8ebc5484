package server

import (
	"github.com/samber/lo"

	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/deal"
	"dealfeed/internal/domain/value"
	"dealfeed/pkg/rest"
)

func newRESTDeal(d entity.Deal) rest.Deal {
	return rest.Deal{
		ID:                d.ID,
		Source:            d.SourceTag().String(),
		Category:          d.Category,
		SubCategory:       d.SubCategory,
		Title:             d.Title,
		Link:              d.Link,
		ImageURL:          d.ImageURL,
		MallName:          d.MallName,
		CurrentPrice:      d.CurrentPrice,
		PreviousPrice:     d.PreviousPrice,
		DropRate:          d.RoundedDropRate(),
		SaleEndDate:       d.SaleEndDate,
		FeedOrder:         d.FeedOrder,
		CategoryFeedOrder: d.CategoryFeedOrder,
		UpdatedAt:         d.UpdatedAt,
	}
}

func newRESTFeedPage(deals []entity.Deal, page value.Page) rest.FeedPage {
	return rest.FeedPage{
		Items:  lo.Map(deals, func(d entity.Deal, _ int) rest.Deal { return newRESTDeal(d) }),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}

func newDomainDeals(items []rest.IngestDeal) []entity.Deal {
	return lo.Map(items, func(item rest.IngestDeal, _ int) entity.Deal {
		return entity.Deal{
			ID:            item.ID,
			Category:      item.Category,
			SubCategory:   item.SubCategory,
			Title:         item.Title,
			Link:          item.Link,
			ImageURL:      item.ImageURL,
			MallName:      item.MallName,
			CurrentPrice:  item.CurrentPrice,
			PreviousPrice: item.PreviousPrice,
			SaleEndDate:   item.SaleEndDate,
		}
	})
}

func newRESTIngestResponse(r deal.IngestResult) rest.IngestResponse {
	return rest.IngestResponse{
		Received:   r.Received,
		Duplicates: r.Duplicates,
		Expired:    r.Expired,
		Stored:     r.Stored,
		Hot:        r.Hot,
	}
}

func newRESTAllocation[M ~map[value.Source]int](alloc M) map[string]int {
	return lo.MapKeys(map[value.Source]int(alloc), func(_ int, src value.Source) string { return src.String() })
}

func newRESTRefreshStatus(r entity.RefreshResult) rest.RefreshStatus {
	return rest.RefreshStatus{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		DurationMs: r.Duration.Milliseconds(),
		Total:      r.Total,
		Categories: r.Categories,
		Allocation: newRESTAllocation(r.Allocation),
	}
}
