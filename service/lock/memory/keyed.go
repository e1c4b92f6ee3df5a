package memory

import (
	"context"
	"sync"

	"github.com/viant/reviewgate/service/lock"
)

// Keyed is an in-process Locker: one mutex per key, created on demand and
// dropped when no goroutine holds or waits on it.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

// New creates a keyed locker.
func New() *Keyed {
	return &Keyed{entries: map[string]*entry{}}
}

// Lock acquires the key, honouring ctx cancellation while waiting.
func (k *Keyed) Lock(ctx context.Context, key string) (lock.Unlock, error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() error {
		released := false
		once.Do(func() {
			<-e.sem
			k.release(key, e)
			released = true
		})
		if !released {
			return lock.ErrNotHeld
		}
		return nil
	}, nil
}

// Size returns the number of keys currently held or awaited.
func (k *Keyed) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *Keyed) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

var _ lock.Locker = (*Keyed)(nil)
