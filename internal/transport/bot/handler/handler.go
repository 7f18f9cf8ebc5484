package handler

import (
	"context"

	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/feedorder"
	"dealfeed/internal/domain/value"
)

type feedService interface {
	LastResult() (entity.RefreshResult, bool)
	Policy() value.FeedPolicy
	PreviewAllocation(ctx context.Context, size int) (feedorder.Allocation, error)
}

type refreshEnqueuer interface {
	EnqueueRefresh(ctx context.Context, reason string) (string, error)
}

type Handler struct {
	feed     feedService
	enqueuer refreshEnqueuer
}

func New(feed feedService, enqueuer refreshEnqueuer) *Handler {
	return &Handler{
		feed:     feed,
		enqueuer: enqueuer,
	}
}
