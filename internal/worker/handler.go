package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/rs/xid"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/deal"
	"dealfeed/pkg/application/modules"
	"dealfeed/pkg/contextx"
	"dealfeed/pkg/errcodes"
	"dealfeed/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type FeedRefresher interface {
	Refresh(ctx context.Context) (entity.RefreshResult, error)
}

type DealCleaner interface {
	Cleanup(ctx context.Context) (deal.CleanupResult, error)
}

type Handler struct {
	feed  FeedRefresher
	deals DealCleaner
}

func NewHandler(feed FeedRefresher, deals DealCleaner) Handler {
	return Handler{feed: feed, deals: deals}
}

// Handlers lists the task handlers for modules.AsynqServer.
func (h Handler) Handlers() []modules.AsynqHandler {
	return []modules.AsynqHandler{
		{Pattern: TypeFeedRefresh, Handle: withTaskLogger(h.refreshFeed)},
		{Pattern: TypeDealsCleanup, Handle: withTaskLogger(h.cleanupDeals)},
	}
}

func (h Handler) refreshFeed(ctx context.Context, task *asynq.Task) error {
	var payload RefreshPayload

	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("json.Unmarshal: %w: %w", err, asynq.SkipRetry)
		}
	}

	_, err := h.feed.Refresh(ctx)

	if domain.HasCode(err, errcodes.RefreshInProgress) {
		logger(ctx).Info("feed refresh skipped, another one is running", slog.String("reason", payload.Reason))
		return nil
	}

	if err != nil {
		return fmt.Errorf("feed.Refresh: %w", err)
	}

	return nil
}

func (h Handler) cleanupDeals(ctx context.Context, _ *asynq.Task) error {
	if _, err := h.deals.Cleanup(ctx); err != nil {
		return fmt.Errorf("deals.Cleanup: %w", err)
	}

	return nil
}

// withTaskLogger gives every task run its own trace id and logs failures.
func withTaskLogger(next func(context.Context, *asynq.Task) error) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		traceID := contextx.TraceID(xid.New().String())
		taskID, _ := asynq.GetTaskID(ctx)

		ctx = contextx.WithTraceID(ctx, traceID)
		ctx = contextx.WithLogger(ctx, logger(ctx).With(
			slog.String(logx.FieldTraceID, traceID.String()),
			slog.String(logx.FieldTask, task.Type()),
			slog.String("task-id", taskID),
		))

		if err := next(ctx, task); err != nil {
			logger(ctx).Error("task failed", logx.Error(err))
			return err
		}

		return nil
	}
}
