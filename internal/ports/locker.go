package ports

import (
	"context"
	"time"
)

// Locker serializa ejecuciones. Acquire devuelve domain.ErrLockHeld si
// otra ejecución tiene la key; unlock libera el lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
