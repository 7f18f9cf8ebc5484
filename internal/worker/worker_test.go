package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/entity"
	"dealfeed/internal/domain/service/deal"
	"dealfeed/internal/worker"
	"dealfeed/pkg/errcodes"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) (entity.RefreshResult, error) {
	f.calls++
	return entity.RefreshResult{}, f.err
}

type fakeCleaner struct {
	err error
}

func (f fakeCleaner) Cleanup(context.Context) (deal.CleanupResult, error) {
	return deal.CleanupResult{}, f.err
}

type fakeClient struct {
	err  error
	task *asynq.Task
}

func (c *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}

	c.task = task

	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func handle(h worker.Handler, pattern string) func(context.Context, *asynq.Task) error {
	for _, handler := range h.Handlers() {
		if handler.Pattern == pattern {
			return handler.Handle
		}
	}

	return nil
}

func TestHandler_RefreshFeed(t *testing.T) {
	dbErr := errors.New("db is down")

	testCases := []struct {
		name    string
		err     error
		payload []byte
		wantErr error
		calls   int
	}{
		{name: "ok", payload: []byte(`{"reason":"schedule"}`), calls: 1},
		{name: "no payload", calls: 1},
		{name: "lost the lock", err: domain.NewError(errcodes.RefreshInProgress, "busy"), calls: 1},
		{name: "store error is retried", err: dbErr, wantErr: dbErr, calls: 1},
		{name: "broken payload is not retried", payload: []byte(`{`), wantErr: asynq.SkipRetry},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			refresher := &fakeRefresher{err: tc.err}
			h := handle(worker.NewHandler(refresher, fakeCleaner{}), worker.TypeFeedRefresh)
			rq.NotNil(h)

			err := h(context.Background(), asynq.NewTask(worker.TypeFeedRefresh, tc.payload))

			if tc.wantErr != nil {
				rq.ErrorIs(err, tc.wantErr)
			} else {
				rq.NoError(err)
			}

			rq.Equal(tc.calls, refresher.calls)
		})
	}
}

func TestHandler_CleanupDeals(t *testing.T) {
	rq := require.New(t)

	cleanupErr := errors.New("boom")

	h := handle(worker.NewHandler(&fakeRefresher{}, fakeCleaner{}), worker.TypeDealsCleanup)
	rq.NoError(h(context.Background(), worker.NewDealsCleanupTask()))

	h = handle(worker.NewHandler(&fakeRefresher{}, fakeCleaner{err: cleanupErr}), worker.TypeDealsCleanup)
	rq.ErrorIs(h(context.Background(), worker.NewDealsCleanupTask()), cleanupErr)
}

func TestEnqueuer_EnqueueRefresh(t *testing.T) {
	rq := require.New(t)

	client := &fakeClient{}

	id, err := worker.NewEnqueuer(client).EnqueueRefresh(context.Background(), "api")
	rq.NoError(err)
	rq.Equal("t1", id)
	rq.Equal(worker.TypeFeedRefresh, client.task.Type())
	rq.JSONEq(`{"reason":"api"}`, string(client.task.Payload()))

	client.err = asynq.ErrDuplicateTask

	_, err = worker.NewEnqueuer(client).EnqueueRefresh(context.Background(), "api")
	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.RefreshInProgress, code)
}
