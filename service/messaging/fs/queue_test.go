package fs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type request struct {
	ArtifactID string `json:"artifactId"`
	OutcomeID  string `json:"outcomeId"`
}

func newQueue(t *testing.T, config Config) *Queue[request] {
	t.Helper()
	config.BaseURL = t.TempDir()
	queue, err := NewQueue[request](afs.New(), config)
	require.NoError(t, err)
	return queue
}

func TestQueue_Layout(t *testing.T) {
	queue := newQueue(t, Config{MaxRetries: 1})
	ctx := context.Background()
	for _, dir := range []string{pendingDir, processingDir, doneDir, deadDir} {
		exists, err := queue.fs.Exists(ctx, queue.dir(dir))
		require.NoError(t, err)
		assert.True(t, exists, dir)
	}
}

func TestQueue_RequiresBaseURL(t *testing.T) {
	_, err := NewQueue[request](afs.New(), Config{})
	assert.Error(t, err)
}

func TestQueue_FIFOAndAck(t *testing.T) {
	queue := newQueue(t, Config{MaxRetries: 1, KeepDone: true, PollInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, id := range []string{"a1", "a2", "a3"} {
		require.NoError(t, queue.Publish(ctx, &request{ArtifactID: id, OutcomeID: "o-" + id}))
		time.Sleep(time.Millisecond)
	}
	size, err := queue.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	for _, id := range []string{"a1", "a2", "a3"} {
		msg, err := queue.Consume(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, msg.T().ArtifactID)
		assert.Equal(t, "o-"+id, msg.T().OutcomeID)
		assert.Equal(t, 1, msg.Attempt())
		require.NoError(t, msg.Ack())
	}

	done, err := queue.list(ctx, doneDir)
	require.NoError(t, err)
	assert.Len(t, done, 3)
}

func TestQueue_NackRetryThenDead(t *testing.T) {
	queue := newQueue(t, Config{MaxRetries: 1, RetryDelay: 20 * time.Millisecond, PollInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &request{ArtifactID: "a1"}))

	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Nack(errors.New("provider down")))

	started := time.Now()
	msg, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 10*time.Millisecond)
	assert.Equal(t, 2, msg.Attempt())
	require.NoError(t, msg.Nack(errors.New("provider still down")))

	dead, err := queue.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "a1", dead[0].Data.ArtifactID)
	assert.Equal(t, "provider still down", dead[0].Error)

	size, err := queue.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestQueue_Recover(t *testing.T) {
	queue := newQueue(t, Config{MaxRetries: 1, PollInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &request{ArtifactID: "a1"}))
	_, err := queue.Consume(ctx)
	require.NoError(t, err)

	recovered, err := queue.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", msg.T().ArtifactID)
}

func TestQueue_ConsumeHonoursContext(t *testing.T) {
	queue := newQueue(t, Config{PollInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVisibleAt(t *testing.T) {
	at := time.Unix(0, 1700000000123456789).UTC()
	parsed, ok := visibleAt(fileName(at, "abc-def"))
	require.True(t, ok)
	assert.Equal(t, at, parsed)

	_, ok = visibleAt("garbage.json")
	assert.False(t, ok)
}
