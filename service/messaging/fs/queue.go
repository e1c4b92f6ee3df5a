package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/reviewgate/internal/idgen"
	"github.com/viant/reviewgate/service/messaging"
)

const (
	pendingDir    = "pending"
	processingDir = "processing"
	doneDir       = "done"
	deadDir       = "dead"
	extension     = ".json"
)

// Envelope is the persisted form of a message
type Envelope[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Config holds configuration for filesystem queue
type Config struct {
	BaseURL      string        // local path or afs URL, e.g. mem://localhost/queue
	MaxRetries   int           // redeliveries before a message goes to dead/
	RetryDelay   time.Duration // delay before a nacked message becomes visible again
	PollInterval time.Duration // how often Consume lists pending/ while it is empty
	KeepDone     bool          // keep acked messages under done/
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:      "/tmp/reviewgate/queue",
		MaxRetries:   3,
		RetryDelay:   time.Second,
		PollInterval: 200 * time.Millisecond,
	}
}

// Message is a claimed message; its file lives under processing/
type Message[T any] struct {
	envelope Envelope[T]
	name     string
	queue    *Queue[T]
	mu       sync.Mutex
	settled  bool
}

// ID returns message id
func (m *Message[T]) ID() string { return m.envelope.ID }

// T returns the message payload
func (m *Message[T]) T() *T { return &m.envelope.Data }

// Attempt returns delivery attempt
func (m *Message[T]) Attempt() int { return m.envelope.Attempt }

// Ack removes the message from processing/
func (m *Message[T]) Ack() error {
	if err := m.settle(); err != nil {
		return err
	}
	return m.queue.complete(context.Background(), m)
}

// Nack moves the message back to pending/ with a delay, or to dead/ once retries run out
func (m *Message[T]) Nack(err error) error {
	if sErr := m.settle(); sErr != nil {
		return sErr
	}
	if err != nil {
		m.envelope.Error = err.Error()
	}
	return m.queue.fail(context.Background(), m)
}

func (m *Message[T]) settle() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return messaging.ErrSettled
	}
	m.settled = true
	return nil
}

// Queue implements a filesystem-based messaging.Queue. File names are prefixed
// with the time they become visible so that listing order is delivery order.
type Queue[T any] struct {
	fs     afs.Service
	config Config
	mu     sync.Mutex
}

// NewQueue creates a new filesystem-based queue and its directory layout
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("fs queue: base URL cannot be empty")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	q := &Queue[T]{fs: fs, config: config}
	ctx := context.Background()
	for _, dir := range []string{pendingDir, processingDir, doneDir, deadDir} {
		URL := q.dir(dir)
		if exists, _ := fs.Exists(ctx, URL); exists {
			continue
		}
		if err := fs.Create(ctx, URL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("fs queue: failed to create %s: %w", URL, err)
		}
	}
	return q, nil
}

// Publish writes a new message to pending/
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("fs queue: nil payload")
	}
	now := time.Now().UTC()
	envelope := &Envelope[T]{ID: idgen.New(), Data: *t, Attempt: 1, CreatedAt: now, UpdatedAt: now}
	return q.write(ctx, pendingDir, fileName(now, envelope.ID), envelope)
}

// Consume claims the oldest visible pending message, polling until one appears or ctx is done
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		msg, err := q.claim(ctx)
		if err != nil || msg != nil {
			return msg, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.config.PollInterval):
		}
	}
}

// Recover moves messages left in processing/ by a crashed consumer back to pending/
func (q *Queue[T]) Recover(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	objects, err := q.list(ctx, processingDir)
	if err != nil {
		return 0, err
	}
	for _, object := range objects {
		if err := q.fs.Move(ctx, object.URL(), path.Join(q.dir(pendingDir), object.Name())); err != nil {
			return 0, fmt.Errorf("fs queue: failed to recover %s: %w", object.Name(), err)
		}
	}
	return len(objects), nil
}

// Size returns the number of pending messages, visible or delayed
func (q *Queue[T]) Size(ctx context.Context) (int, error) {
	objects, err := q.list(ctx, pendingDir)
	return len(objects), err
}

// DeadLetters returns envelopes that exhausted their retries
func (q *Queue[T]) DeadLetters(ctx context.Context) ([]*Envelope[T], error) {
	objects, err := q.list(ctx, deadDir)
	if err != nil {
		return nil, err
	}
	var result []*Envelope[T]
	for _, object := range objects {
		envelope, err := q.read(ctx, object.URL())
		if err != nil {
			return nil, err
		}
		result = append(result, envelope)
	}
	return result, nil
}

func (q *Queue[T]) claim(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	objects, err := q.list(ctx, pendingDir)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, object := range objects {
		visibleAt, ok := visibleAt(object.Name())
		if ok && visibleAt.After(now) {
			break
		}
		envelope, err := q.read(ctx, object.URL())
		if err != nil {
			_ = q.fs.Move(ctx, object.URL(), path.Join(q.dir(deadDir), "invalid-"+object.Name()))
			return nil, err
		}
		if err := q.fs.Move(ctx, object.URL(), path.Join(q.dir(processingDir), object.Name())); err != nil {
			return nil, fmt.Errorf("fs queue: failed to claim %s: %w", object.Name(), err)
		}
		return &Message[T]{envelope: *envelope, name: object.Name(), queue: q}, nil
	}
	return nil, nil
}

func (q *Queue[T]) complete(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	processing := path.Join(q.dir(processingDir), m.name)
	if q.config.KeepDone {
		m.envelope.UpdatedAt = time.Now().UTC()
		if err := q.write(ctx, doneDir, m.name, &m.envelope); err != nil {
			return err
		}
	}
	return q.fs.Delete(ctx, processing)
}

func (q *Queue[T]) fail(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now().UTC()
	m.envelope.UpdatedAt = now
	processing := path.Join(q.dir(processingDir), m.name)
	if m.envelope.Attempt > q.config.MaxRetries {
		if err := q.write(ctx, deadDir, m.name, &m.envelope); err != nil {
			return err
		}
		return q.fs.Delete(ctx, processing)
	}
	m.envelope.Attempt++
	if err := q.write(ctx, pendingDir, fileName(now.Add(q.config.RetryDelay), m.envelope.ID), &m.envelope); err != nil {
		return err
	}
	return q.fs.Delete(ctx, processing)
}

func (q *Queue[T]) dir(name string) string {
	return path.Join(q.config.BaseURL, name)
}

func (q *Queue[T]) list(ctx context.Context, dir string) ([]storage.Object, error) {
	objects, err := q.fs.List(ctx, q.dir(dir))
	if err != nil {
		return nil, fmt.Errorf("fs queue: failed to list %s: %w", dir, err)
	}
	var files []storage.Object
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), extension) {
			files = append(files, object)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	return files, nil
}

func (q *Queue[T]) write(ctx context.Context, dir, name string, envelope *Envelope[T]) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("fs queue: failed to marshal message %s: %w", envelope.ID, err)
	}
	URL := path.Join(q.dir(dir), name)
	if err := q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("fs queue: failed to write %s: %w", URL, err)
	}
	return nil
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Envelope[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("fs queue: failed to read %s: %w", URL, err)
	}
	envelope := &Envelope[T]{}
	if err := json.Unmarshal(data, envelope); err != nil {
		return nil, fmt.Errorf("fs queue: failed to unmarshal %s: %w", URL, err)
	}
	return envelope, nil
}

func fileName(visibleAt time.Time, id string) string {
	return fmt.Sprintf("%019d-%s%s", visibleAt.UnixNano(), id, extension)
}

func visibleAt(name string) (time.Time, bool) {
	prefix, _, ok := strings.Cut(name, "-")
	if !ok {
		return time.Time{}, false
	}
	nanos, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos).UTC(), true
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
