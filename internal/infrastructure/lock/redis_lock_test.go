package lock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/stretchr/testify/require"

	"dealfeed/internal/domain"
	"dealfeed/internal/infrastructure/lock"
	"dealfeed/pkg/errcodes"
)

func newLocker(t *testing.T) *lock.RedisLocker {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())

	return lock.NewRedisLocker(client)
}

func TestRedisLocker(t *testing.T) {
	locker := newLocker(t)
	rq := require.New(t)
	ctx := context.Background()
	key := "dealfeed:test:" + xid.New().String()

	unlock, ok, err := locker.TryLock(ctx, key, time.Minute)
	rq.NoError(err)
	rq.True(ok)

	_, ok, err = locker.TryLock(ctx, key, time.Minute)
	rq.NoError(err)
	rq.False(ok)

	rq.NoError(unlock(ctx))

	unlock, ok, err = locker.TryLock(ctx, key, time.Minute)
	rq.NoError(err)
	rq.True(ok)
	rq.NoError(unlock(ctx))
}

func TestRedisLocker_Expired(t *testing.T) {
	locker := newLocker(t)
	rq := require.New(t)
	ctx := context.Background()
	key := "dealfeed:test:" + xid.New().String()

	unlock, ok, err := locker.TryLock(ctx, key, 50*time.Millisecond)
	rq.NoError(err)
	rq.True(ok)

	time.Sleep(100 * time.Millisecond)

	// somebody else owns it now
	other, ok, err := locker.TryLock(ctx, key, time.Minute)
	rq.NoError(err)
	rq.True(ok)

	code, isApp := domain.GetCode(unlock(ctx))
	rq.True(isApp)
	rq.Equal(errcodes.LockNotHeld, code)

	_, ok, err = locker.TryLock(ctx, key, time.Minute)
	rq.NoError(err)
	rq.False(ok)

	rq.NoError(other(ctx))
}
