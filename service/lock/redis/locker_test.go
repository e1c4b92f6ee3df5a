package redis

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a reachable Redis; set REVIEWGATE_TEST_REDIS=host:port to run.
func testLocker(t *testing.T) *Locker {
	addr := os.Getenv("REVIEWGATE_TEST_REDIS")
	if addr == "" {
		t.Skip("REVIEWGATE_TEST_REDIS not set")
	}
	config := DefaultConfig()
	config.Addr = addr
	config.Prefix = "reviewgate:test:" + time.Now().Format("150405.000000") + ":"
	locker := New(config)
	t.Cleanup(func() { _ = locker.Close() })
	return locker
}

func TestLocker_Exclusive(t *testing.T) {
	locker := testLocker(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "a1")
			if !assert.NoError(t, err) {
				return
			}
			value := counter
			time.Sleep(2 * time.Millisecond)
			counter = value + 1
			assert.NoError(t, unlock())
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, counter)
}

func TestLocker_ContextTimeout(t *testing.T) {
	locker := testLocker(t)
	unlock, err := locker.Lock(context.Background(), "a2")
	require.NoError(t, err)
	defer func() { _ = unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
