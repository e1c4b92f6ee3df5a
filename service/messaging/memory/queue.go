package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/reviewgate/internal/idgen"
	"github.com/viant/reviewgate/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	Buffer     int
	MaxRetries int
	RetryDelay time.Duration
	DeadLetter bool
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		Buffer:     256,
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
		DeadLetter: true,
	}
}

// Message is a single in-flight delivery
type Message[T any] struct {
	id      string
	payload T
	attempt int
	queue   *Queue[T]
	mu      sync.Mutex
	settled bool
}

// ID returns message id
func (m *Message[T]) ID() string { return m.id }

// T returns the message payload
func (m *Message[T]) T() *T { return &m.payload }

// Attempt returns delivery attempt
func (m *Message[T]) Attempt() int { return m.attempt }

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	return m.settle()
}

// Nack schedules redelivery after RetryDelay or buries the message once retries run out
func (m *Message[T]) Nack(err error) error {
	if sErr := m.settle(); sErr != nil {
		return sErr
	}
	if m.attempt > m.queue.config.MaxRetries {
		m.queue.bury(m.payload)
		return nil
	}
	next := &Message[T]{id: m.id, payload: m.payload, attempt: m.attempt + 1, queue: m.queue}
	m.queue.retries.Add(1)
	time.AfterFunc(m.queue.config.RetryDelay, func() {
		defer m.queue.retries.Done()
		m.queue.redeliver(next)
	})
	return nil
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

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
	retries  sync.WaitGroup
	deadMu   sync.Mutex
	dead     []T
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.Buffer <= 0 {
		config.Buffer = DefaultConfig().Buffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.Buffer),
		config:   config,
	}
}

// Publish adds a new item to the queue; it blocks while the buffer is full
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("memory queue: nil payload")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{id: idgen.New(), payload: *t, attempt: 1, queue: q}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue[T]) redeliver(msg *Message[T]) {
	select {
	case q.messages <- msg:
	default:
		q.bury(msg.payload)
	}
}

func (q *Queue[T]) bury(payload T) {
	if !q.config.DeadLetter {
		return
	}
	q.deadMu.Lock()
	q.dead = append(q.dead, payload)
	q.deadMu.Unlock()
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns a copy of payloads that exhausted their retries
func (q *Queue[T]) DeadLetters() []T {
	q.deadMu.Lock()
	defer q.deadMu.Unlock()
	return append([]T(nil), q.dead...)
}

// WaitRetries blocks until every scheduled redelivery has been enqueued
func (q *Queue[T]) WaitRetries() {
	q.retries.Wait()
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
