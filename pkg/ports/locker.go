package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes writers that share a ConfigStore across processes,
// e.g. several servers syncing the same rules file into one Redis.
type Locker interface {
	// Lock blocks until key is acquired or ctx is done. The lock expires
	// after ttl if never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
