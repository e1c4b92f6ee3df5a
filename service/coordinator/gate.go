package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/reviewgate/internal/clock"
	model "github.com/viant/reviewgate/model/analysis"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/analysis"
	"github.com/viant/reviewgate/service/dao"
	"github.com/viant/reviewgate/service/event"
	"github.com/viant/reviewgate/service/gate"
	"github.com/viant/reviewgate/tracing"
)

// ApplyAnalysisOutcome runs the gate on a finished outcome. Calls for an
// artifact that left GatePending, or for an outcome other than the latest,
// are logged no-ops, so duplicate and late deliveries are harmless.
func (c *Coordinator) ApplyAnalysisOutcome(ctx context.Context, artifactID, outcomeID string) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "ApplyAnalysisOutcome", artifactID)
	defer func() { tracing.EndSpan(span, err) }()
	var decision gate.Decision
	var confidence string
	from, ret, changed, err := c.transition(ctx, artifactID, func(a *artifact.Artifact) error {
		if c.stale(a, outcomeID, "outcome") {
			return errNoop
		}
		record, err := c.outcomes.Load(ctx, outcomeID)
		if err != nil && !errors.Is(err, dao.ErrNotFound) {
			return fmt.Errorf("failed to load outcome %v: %w", outcomeID, err)
		}
		if record != nil && record.Scored() {
			confidence = fmt.Sprintf("%.2f", *record.Confidence)
		}
		decision = c.gate.Decide(record)
		if decision.Approved {
			return a.GateApprove()
		}
		return a.GateReject(decision.Reason)
	})
	if err != nil || !changed {
		return ret, err
	}
	kind := event.KindGateRejected
	if decision.Approved {
		kind = event.KindGateApproved
	}
	e := event.New(kind, from, ret, "").With("outcomeId", outcomeID)
	if confidence != "" {
		e.With("confidence", confidence)
	}
	c.committed(ctx, e)
	return ret, nil
}

// ApplyAnalysisFailure rejects a GatePending artifact whose analysis could not
// be produced or scheduled, and marks the outcome failed. Stale calls are no-ops.
func (c *Coordinator) ApplyAnalysisFailure(ctx context.Context, artifactID, outcomeID string, cause error) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "ApplyAnalysisFailure", artifactID)
	defer func() { tracing.EndSpan(span, err) }()
	reason := failureReason(cause)
	from, ret, changed, err := c.transition(ctx, artifactID, func(a *artifact.Artifact) error {
		if c.stale(a, outcomeID, "failure") {
			return errNoop
		}
		if err := c.failOutcome(ctx, outcomeID, reason); err != nil {
			return err
		}
		return a.GateReject(reason)
	})
	if err != nil || !changed {
		return ret, err
	}
	c.committed(ctx, event.New(event.KindGateRejected, from, ret, "").With("outcomeId", outcomeID).With("failure", "true"))
	return ret, nil
}

func (c *Coordinator) stale(a *artifact.Artifact, outcomeID, callback string) bool {
	if a.State != artifact.StateGatePending {
		c.logger.Info("analysis "+callback+" ignored: artifact not at gate", "artifact_id", a.ID, "state", string(a.State), "outcome_id", outcomeID)
		return true
	}
	if a.LatestOutcomeID != outcomeID {
		c.logger.Info("analysis "+callback+" ignored: stale outcome", "artifact_id", a.ID, "outcome_id", outcomeID, "latest_outcome_id", a.LatestOutcomeID)
		return true
	}
	return false
}

func (c *Coordinator) failOutcome(ctx context.Context, outcomeID, reason string) error {
	record, err := c.outcomes.Load(ctx, outcomeID)
	if errors.Is(err, dao.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load outcome %v: %w", outcomeID, err)
	}
	if record.Lifecycle != model.LifecyclePending {
		return nil
	}
	record.Fail(reason, clock.Now())
	if err := c.outcomes.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save outcome %v: %w", outcomeID, err)
	}
	return nil
}

func failureReason(cause error) string {
	prefix := analysis.ErrProviderFailure.Error()
	if cause == nil {
		return prefix
	}
	text := strings.TrimPrefix(cause.Error(), prefix+": ")
	if text == "" || text == prefix {
		return prefix
	}
	return prefix + ": " + text
}
