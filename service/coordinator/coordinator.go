package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/reviewgate/internal/clock"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/analysis"
	artifactdao "github.com/viant/reviewgate/service/dao/artifact"
	detaildao "github.com/viant/reviewgate/service/dao/detail"
	"github.com/viant/reviewgate/service/dao/outcome"
	"github.com/viant/reviewgate/service/completeness"
	"github.com/viant/reviewgate/service/event"
	"github.com/viant/reviewgate/service/gate"
	"github.com/viant/reviewgate/service/notify"
	"github.com/viant/reviewgate/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// errNoop aborts a transition without error; the lock is released unchanged.
var errNoop = errors.New("no-op")

// Coordinator serializes artifact transitions
type Coordinator struct {
	artifacts     artifactdao.Store
	details       detaildao.Store
	outcomes      outcome.Store
	scheduler     analysis.Scheduler
	checker       *completeness.Checker
	gate          *gate.Gate
	notifier      notify.Notifier
	notifyTimeout time.Duration
	logger        *slog.Logger
	meter         metric.Meter
	transitions   metric.Int64Counter
}

// New creates a coordinator. The scheduler must be started with the returned
// coordinator as its sink before Submit is called.
func New(artifacts artifactdao.Store, details detaildao.Store, outcomes outcome.Store, scheduler analysis.Scheduler, options ...Option) (*Coordinator, error) {
	if artifacts == nil || details == nil || outcomes == nil {
		return nil, errors.New("coordinator: artifact, detail and outcome stores are required")
	}
	if scheduler == nil {
		return nil, errors.New("coordinator: analysis scheduler is required")
	}
	ret := &Coordinator{
		artifacts:     artifacts,
		details:       details,
		outcomes:      outcomes,
		scheduler:     scheduler,
		checker:       completeness.New(details),
		notifyTimeout: 5 * time.Second,
	}
	for _, option := range options {
		option(ret)
	}
	if ret.gate == nil {
		ret.gate, _ = gate.New(gate.DefaultThreshold)
	}
	if ret.notifier == nil {
		ret.notifier = notify.Nop{}
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.meter == nil {
		ret.meter = otel.Meter(tracing.InstrumentationName)
	}
	var err error
	if ret.transitions, err = ret.meter.Int64Counter("reviewgate.transitions",
		metric.WithDescription("Committed artifact state transitions")); err != nil {
		return nil, fmt.Errorf("coordinator: failed to create transition counter: %w", err)
	}
	return ret, nil
}

// Gate returns the configured gate
func (c *Coordinator) Gate() *gate.Gate { return c.gate }

// transition runs apply on the locked working copy and commits it. When apply
// returns errNoop the lock is released without writing and changed is false.
func (c *Coordinator) transition(ctx context.Context, id string, apply func(a *artifact.Artifact) error) (from artifact.State, snapshot *artifact.Artifact, changed bool, err error) {
	tx, err := c.artifacts.LoadForUpdate(ctx, id)
	if err != nil {
		return "", nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	working := tx.Artifact()
	from = working.State
	if err = apply(working); err != nil {
		if errors.Is(err, errNoop) {
			return from, working.Clone(), false, nil
		}
		return from, nil, false, err
	}
	working.UpdatedAt = clock.Now()
	if err = tx.Save(ctx, working); err != nil {
		return from, nil, false, fmt.Errorf("failed to save artifact %v: %w", id, err)
	}
	if err = tx.Commit(); err != nil {
		return from, nil, false, fmt.Errorf("failed to commit artifact %v: %w", id, err)
	}
	return from, working.Clone(), true, nil
}

// committed records metrics, logs and notifies after the lock is released
func (c *Coordinator) committed(ctx context.Context, e *event.Lifecycle) {
	c.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(e.Kind)),
		attribute.String("from", string(e.From)),
		attribute.String("to", string(e.To)),
	))
	c.logger.Info("artifact transitioned", "artifact_id", e.ArtifactID, "kind", string(e.Kind), "from", string(e.From), "to", string(e.To), "actor_id", e.ActorID)
	c.emit(ctx, e)
}

// emit calls the notifier with its own deadline. Errors and panics are logged only.
func (c *Coordinator) emit(ctx context.Context, e *event.Lifecycle) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("notifier panicked", "artifact_id", e.ArtifactID, "kind", string(e.Kind), "panic", fmt.Sprint(r))
		}
	}()
	if err := c.notifier.Emit(ctx, e); err != nil {
		c.logger.Warn("notification failed", "artifact_id", e.ArtifactID, "kind", string(e.Kind), "error", err)
	}
}

var _ analysis.Sink = (*Coordinator)(nil)

func startSpan(ctx context.Context, op, id string) (context.Context, *tracing.Span) {
	ctx, span := tracing.StartSpan(ctx, "coordinator."+op, tracing.KindInternal)
	span.WithAttributes(map[string]string{"artifact.id": id})
	return ctx, span
}
