package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/fold/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockLost is returned by an unlock whose lock expired or was taken over.
var ErrLockLost = errors.New("redis lock no longer held")

// releaseLock deletes KEYS[1] only while it still holds our token.
var releaseLock = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker implements ports.Locker with SET NX PX and a per-acquisition token.
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

// NewLocker returns a locker whose keys live under prefix + "lock:".
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix, poll: 100 * time.Millisecond}
}

func (l *Locker) lockKey(key string) string {
	return l.prefix + "lock:" + key
}

// Lock retries every poll interval until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	name := l.lockKey(key)
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, name, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %q: %w", key, err)
		}
		if acquired {
			return l.unlocker(name, token), nil
		}

		t := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Locker) unlocker(name, token string) ports.UnlockFunc {
	return func(ctx context.Context) error {
		n, err := releaseLock.Run(ctx, l.client, []string{name}, token).Int()
		if err != nil {
			return fmt.Errorf("release lock: %w", err)
		}
		if n == 0 {
			return ErrLockLost
		}
		return nil
	}
}
