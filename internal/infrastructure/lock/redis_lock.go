package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"dealfeed/internal/domain"
	"dealfeed/pkg/errcodes"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`) //nolint:gochecknoglobals

type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryLock takes key for ttl with SET NX PX. ok is false when the key is
// already held.
func (l *RedisLocker) TryLock(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (func(context.Context) error, bool, error) {
	token := xid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis.SetNX: %w", err)
	}

	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}

		if deleted == 0 {
			return domain.NewError(errcodes.LockNotHeld, "lock "+key+" expired before release")
		}

		return nil
	}

	return unlock, true, nil
}
