package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"dealfeed/internal/domain"
	"dealfeed/pkg/errcodes"
	"dealfeed/pkg/logx"
)

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer puts on-demand refreshes on the same queue the scheduler uses.
type Enqueuer struct {
	client taskClient
}

func NewEnqueuer(client taskClient) Enqueuer {
	return Enqueuer{client: client}
}

// EnqueueRefresh returns the task id. A refresh already waiting in the queue
// yields RefreshInProgress.
func (e Enqueuer) EnqueueRefresh(ctx context.Context, reason string) (string, error) {
	task, err := NewFeedRefreshTask(reason)
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", domain.WrapError(err, errcodes.RefreshInProgress, "feed refresh is already queued")
	}

	if err != nil {
		return "", fmt.Errorf("client.Enqueue: %w", err)
	}

	logger(ctx).Info("feed refresh enqueued",
		slog.String(logx.FieldTask, info.Type),
		slog.String("task-id", info.ID),
		slog.String("reason", reason),
	)

	return info.ID, nil
}
