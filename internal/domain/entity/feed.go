package entity

import (
	"time"

	"dealfeed/internal/domain/value"
)

// FeedRank is the result of one feed refresh for a single deal.
type FeedRank struct {
	DealID            string
	FeedOrder         int
	CategoryFeedOrder int
}

// RefreshResult summarizes a refresh cycle.
type RefreshResult struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Total      int
	Categories int
	Allocation map[value.Source]int
}
