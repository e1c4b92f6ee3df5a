// Package notify delivers lifecycle events to interested parties. Delivery is
// fire-and-forget from the coordinator's point of view: a failing notifier
// never affects a committed transition.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/viant/reviewgate/service/event"
)

// Notifier receives committed lifecycle events
type Notifier interface {
	Emit(ctx context.Context, e *event.Lifecycle) error
}

// Func adapts a function to Notifier
type Func func(ctx context.Context, e *event.Lifecycle) error

// Emit calls fn
func (fn Func) Emit(ctx context.Context, e *event.Lifecycle) error {
	return fn(ctx, e)
}

// Nop discards events
type Nop struct{}

// Emit does nothing
func (Nop) Emit(context.Context, *event.Lifecycle) error { return nil }

// Queue publishes events to a lifecycle queue
type Queue struct {
	publisher *event.Publisher
}

// NewQueue creates a queue notifier
func NewQueue(publisher *event.Publisher) *Queue {
	return &Queue{publisher: publisher}
}

// Emit publishes e
func (q *Queue) Emit(ctx context.Context, e *event.Lifecycle) error {
	return q.publisher.Publish(ctx, e)
}

// Log writes events to a slog logger
type Log struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLog creates a log notifier; nil logger uses slog.Default
func NewLog(logger *slog.Logger, level slog.Level) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, level: level}
}

// Emit logs e
func (l *Log) Emit(ctx context.Context, e *event.Lifecycle) error {
	attrs := []any{
		"kind", string(e.Kind),
		"artifact_id", e.ArtifactID,
		"from", string(e.From),
		"to", string(e.To),
	}
	if e.ActorID != "" {
		attrs = append(attrs, "actor_id", e.ActorID)
	}
	if e.Reason != "" {
		attrs = append(attrs, "reason", e.Reason)
	}
	l.logger.Log(ctx, l.level, "artifact lifecycle", attrs...)
	return nil
}

// Multi fans out to every notifier and joins their errors
type Multi []Notifier

// Emit calls each notifier in order
func (m Multi) Emit(ctx context.Context, e *event.Lifecycle) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
