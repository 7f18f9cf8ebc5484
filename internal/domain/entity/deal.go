package entity

import (
	"math"
	"time"

	"dealfeed/internal/domain/value"
)

type Deal struct {
	ID            string       `json:"id"`
	Source        value.Source `json:"source"`
	Category      string       `json:"category,omitempty"`
	SubCategory   string       `json:"sub_category,omitempty"`
	Title         string       `json:"title"`
	Link          string       `json:"link"`
	ImageURL      string       `json:"image_url,omitempty"`
	MallName      string       `json:"mall_name,omitempty"`
	CurrentPrice  int64        `json:"current_price"`
	PreviousPrice *int64       `json:"previous_price,omitempty"` // nil, если скидки нет
	DropRate      float64      `json:"drop_rate"`
	SaleEndDate   *time.Time   `json:"sale_end_date,omitempty"`

	// Проставляются пересчётом ленты.
	FeedOrder         int `json:"feed_order"`
	CategoryFeedOrder int `json:"category_feed_order"`

	UpdatedAt time.Time `json:"updated_at"`
}

// SourceTag returns the deal source, "other" when it is not set.
func (d Deal) SourceTag() value.Source {
	if d.Source == "" {
		return value.SourceOther
	}

	return d.Source
}

// CategoryTag returns the category scope used for per-category ordering.
func (d Deal) CategoryTag() string {
	if d.Category == "" {
		return value.CategoryUncategorized
	}

	return d.Category
}

// CalcDropRate returns the discount in percent, 0 without a valid previous price.
func (d Deal) CalcDropRate() float64 {
	if d.PreviousPrice == nil || *d.PreviousPrice <= 0 {
		return 0
	}

	prev := float64(*d.PreviousPrice)

	return (prev - float64(d.CurrentPrice)) / prev * 100 //nolint:mnd // percent
}

// RoundedDropRate is the drop rate as shown to users.
func (d Deal) RoundedDropRate() int {
	return int(math.Round(d.DropRate))
}

// Expired reports whether the sale has already ended at now.
func (d Deal) Expired(now time.Time) bool {
	return d.SaleEndDate != nil && d.SaleEndDate.Before(now)
}
