// Package lock provides per-key exclusive locks used to serialise
// read-modify-write windows on a single artifact.
package lock

import (
	"context"
	"errors"
)

// ErrNotHeld is returned when releasing a lock that was lost or already released.
var ErrNotHeld = errors.New("lock: not held")

// Unlock releases an acquired lock. Calling it more than once is a no-op.
type Unlock func() error

// Locker acquires exclusive locks keyed by an identifier. Lock blocks until the
// key is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Vendor names a Locker implementation.
type Vendor string

const (
	VendorMemory Vendor = "memory"
	VendorRedis  Vendor = "redis"
)
