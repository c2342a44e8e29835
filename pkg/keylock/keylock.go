// Package keylock provides named mutual exclusion for reconciliation keys.
// Local serializes callers inside one process; Redis extends the guarantee
// across replicas sharing a Redis instance.
package keylock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a key could not be acquired before the
// configured wait elapsed.
var ErrTimeout = errors.New("lock wait timed out")

// Locker acquires exclusive ownership of a key. The returned release
// function must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
