package persistence

import (
	"database/sql"
	"time"

	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/value"
)

// dealSchema - строка таблицы deals.
type dealSchema struct {
	ID                string        `db:"id"`
	Source            string        `db:"source"`
	Category          string        `db:"category"`
	SubCategory       string        `db:"sub_category"`
	Title             string        `db:"title"`
	Link              string        `db:"link"`
	ImageURL          string        `db:"image_url"`
	MallName          string        `db:"mall_name"`
	CurrentPrice      int64         `db:"current_price"`
	PreviousPrice     sql.NullInt64 `db:"previous_price"`
	DropRate          float64       `db:"drop_rate"`
	SaleEndDate       sql.NullTime  `db:"sale_end_date"`
	FeedOrder         sql.NullInt32 `db:"feed_order"`
	CategoryFeedOrder sql.NullInt32 `db:"category_feed_order"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

func fromDeal(d entity.Deal) dealSchema {
	s := dealSchema{
		ID:           d.ID,
		Source:       d.SourceTag().String(),
		Category:     d.Category,
		SubCategory:  d.SubCategory,
		Title:        d.Title,
		Link:         d.Link,
		ImageURL:     d.ImageURL,
		MallName:     d.MallName,
		CurrentPrice: d.CurrentPrice,
		DropRate:     d.DropRate,
		UpdatedAt:    d.UpdatedAt,
	}

	if d.PreviousPrice != nil {
		s.PreviousPrice = sql.NullInt64{Int64: *d.PreviousPrice, Valid: true}
	}

	if d.SaleEndDate != nil {
		s.SaleEndDate = sql.NullTime{Time: *d.SaleEndDate, Valid: true}
	}

	return s
}

func (s dealSchema) toDomain() entity.Deal {
	d := entity.Deal{
		ID:                s.ID,
		Source:            value.Source(s.Source),
		Category:          s.Category,
		SubCategory:       s.SubCategory,
		Title:             s.Title,
		Link:              s.Link,
		ImageURL:          s.ImageURL,
		MallName:          s.MallName,
		CurrentPrice:      s.CurrentPrice,
		DropRate:          s.DropRate,
		FeedOrder:         int(s.FeedOrder.Int32),
		CategoryFeedOrder: int(s.CategoryFeedOrder.Int32),
		UpdatedAt:         s.UpdatedAt,
	}

	if s.PreviousPrice.Valid {
		prev := s.PreviousPrice.Int64
		d.PreviousPrice = &prev
	}

	if s.SaleEndDate.Valid {
		end := s.SaleEndDate.Time
		d.SaleEndDate = &end
	}

	return d
}
