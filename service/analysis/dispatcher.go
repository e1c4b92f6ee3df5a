package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/reviewgate/service/messaging"
	"golang.org/x/sync/errgroup"
)

// Dispatcher schedules requests on a queue and runs them on a worker pool.
type Dispatcher struct {
	queue   messaging.Queue[Request]
	runner  *Runner
	workers int
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewDispatcher creates a dispatcher with workers consumers (minimum 1).
func NewDispatcher(queue messaging.Queue[Request], runner *Runner, workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{queue: queue, runner: runner, workers: workers, logger: logger}
}

// Schedule publishes the request.
func (d *Dispatcher) Schedule(ctx context.Context, request *Request) error {
	if err := d.queue.Publish(ctx, request); err != nil {
		return fmt.Errorf("%w: failed to enqueue analysis of %v: %v", ErrProviderFailure, request.ArtifactID, err)
	}
	return nil
}

// Start launches the workers; results go to sink.
func (d *Dispatcher) Start(ctx context.Context, sink Sink) error {
	if sink == nil {
		return errors.New("analysis dispatcher: sink is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return errors.New("analysis dispatcher: already started")
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		id := i
		d.group.Go(func() error {
			d.work(ctx, id, sink)
			return nil
		})
	}
	return nil
}

// Shutdown stops consuming and waits for in-flight requests, or for ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	cancel, group := d.cancel, d.group
	d.cancel, d.group = nil, nil
	d.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	done := make(chan error, 1)
	go func() { done <- group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work(ctx context.Context, id int, sink Sink) {
	logger := d.logger.With("worker", id)
	for {
		msg, err := d.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("analysis consume failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		request := msg.T()
		// in-flight analysis is never cancelled by shutdown
		if err := d.runner.Run(context.WithoutCancel(ctx), request, sink); err != nil {
			logger.Warn("analysis request failed", "artifact_id", request.ArtifactID, "outcome_id", request.OutcomeID, "attempt", msg.Attempt(), "error", err)
			_ = msg.Nack(err)
			continue
		}
		_ = msg.Ack()
	}
}
