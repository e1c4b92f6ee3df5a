package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/reviewgate/service/messaging"
)

// Handler processes a single event; a returned error nacks the message
type Handler func(ctx context.Context, event *Lifecycle) error

// Listener consumes a lifecycle queue on a single goroutine
type Listener struct {
	queue   messaging.Queue[Lifecycle]
	handler Handler
	logger  *slog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// NewListener creates a listener; call Start to begin consuming
func NewListener(queue messaging.Queue[Lifecycle], handler Handler, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{queue: queue, handler: handler, logger: logger}
}

// Start launches the consume loop; it is a no-op when already running
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

// Stop cancels the loop and waits for the in-flight event to finish
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Listener) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		msg, err := l.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			l.logger.Warn("event consume failed", "error", err)
			continue
		}
		if err := l.handle(ctx, msg.T()); err != nil {
			l.logger.Warn("event handler failed", "artifact_id", msg.T().ArtifactID, "kind", msg.T().Kind, "error", err)
			_ = msg.Nack(err)
			continue
		}
		_ = msg.Ack()
	}
}

func (l *Listener) handle(ctx context.Context, event *Lifecycle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic: %v", r)
		}
	}()
	return l.handler(ctx, event)
}
