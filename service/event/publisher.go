package event

import (
	"context"
	"fmt"

	"github.com/viant/reviewgate/service/messaging"
)

// Publisher writes lifecycle events to a queue
type Publisher struct {
	queue messaging.Queue[Lifecycle]
}

// NewPublisher creates a publisher
func NewPublisher(queue messaging.Queue[Lifecycle]) *Publisher {
	return &Publisher{queue: queue}
}

// Publish enqueues the event
func (p *Publisher) Publish(ctx context.Context, event *Lifecycle) error {
	if event == nil {
		return fmt.Errorf("event: nil lifecycle event")
	}
	return p.queue.Publish(ctx, event)
}

// Queue returns the underlying queue
func (p *Publisher) Queue() messaging.Queue[Lifecycle] {
	return p.queue
}
