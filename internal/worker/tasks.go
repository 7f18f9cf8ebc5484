package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"
)

const (
	TypeFeedRefresh  = "feed:refresh"
	TypeDealsCleanup = "deals:cleanup"

	QueueFeed = "feed"

	// refreshUniqueTTL keeps a second refresh out of the queue while one is
	// pending or running.
	refreshUniqueTTL = 10 * time.Minute
	refreshTimeout   = 5 * time.Minute
	cleanupTimeout   = 5 * time.Minute
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// RefreshPayload says who asked for a refresh ("schedule", "api", "bot").
type RefreshPayload struct {
	Reason string `json:"reason"`
}

func NewFeedRefreshTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(RefreshPayload{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return asynq.NewTask(TypeFeedRefresh, payload,
		asynq.Queue(QueueFeed),
		asynq.MaxRetry(1),
		asynq.Timeout(refreshTimeout),
		asynq.Unique(refreshUniqueTTL),
	), nil
}

func NewDealsCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeDealsCleanup, nil,
		asynq.Queue(QueueFeed),
		asynq.MaxRetry(2), //nolint:mnd // skip
		asynq.Timeout(cleanupTimeout),
		asynq.Unique(cleanupTimeout),
	)
}
