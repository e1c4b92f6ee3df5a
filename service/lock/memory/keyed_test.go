package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/reviewgate/service/lock"
)

func TestKeyed_SerialisesSameKey(t *testing.T) {
	locker := New()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "a1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			counter++ // guarded by the keyed lock
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			assert.NoError(t, unlock())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locker.Size())
}

func TestKeyed_IndependentKeys(t *testing.T) {
	locker := New()
	ctx := context.Background()
	unlockA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		unlockB, err := locker.Lock(ctx, "b")
		assert.NoError(t, err)
		_ = unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different keys must not block each other")
	}
	assert.NoError(t, unlockA())
	assert.ErrorIs(t, unlockA(), lock.ErrNotHeld)
}

func TestKeyed_ContextCancelled(t *testing.T) {
	locker := New()
	unlock, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.NoError(t, unlock())
	assert.Equal(t, 0, locker.Size())
}
