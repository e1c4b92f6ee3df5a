package analysis

import (
	"context"
	"errors"
	"fmt"
)

// Inline runs every request synchronously inside Schedule; used by the CLI.
type Inline struct {
	runner *Runner
	sink   Sink
}

// NewInline creates an inline scheduler.
func NewInline(runner *Runner) *Inline {
	return &Inline{runner: runner}
}

// Start binds sink.
func (i *Inline) Start(_ context.Context, sink Sink) error {
	if sink == nil {
		return errors.New("inline analysis: sink is required")
	}
	i.sink = sink
	return nil
}

// Schedule runs the request before returning.
func (i *Inline) Schedule(ctx context.Context, request *Request) error {
	if i.sink == nil {
		return fmt.Errorf("%w: inline analysis not started", ErrProviderFailure)
	}
	if err := i.runner.Run(ctx, request, i.sink); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	return nil
}
