package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/reviewgate/internal/clock"
	"github.com/viant/reviewgate/internal/idgen"
	model "github.com/viant/reviewgate/model/analysis"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/analysis"
	"github.com/viant/reviewgate/service/completeness"
	"github.com/viant/reviewgate/service/event"
	"github.com/viant/reviewgate/tracing"
)

// Create stores a new Draft artifact with its detail records
func (c *Coordinator) Create(ctx context.Context, draft *Draft) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "Create", "")
	defer func() { tracing.EndSpan(span, err) }()
	if draft == nil {
		return nil, errors.New("draft is required")
	}
	if !draft.Kind.Valid() {
		return nil, fmt.Errorf("unsupported artifact kind: %q", draft.Kind)
	}
	if strings.TrimSpace(draft.OwnerID) == "" {
		return nil, errors.New("owner id is required")
	}
	a := artifact.New(idgen.New(), draft.Kind, strings.TrimSpace(draft.Title), draft.OwnerID, draft.ReviewTiers)
	now := clock.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	if err = c.artifacts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}
	if err = c.details.Replace(ctx, a.ID, draft.Details); err != nil {
		return nil, fmt.Errorf("failed to store details of %v: %w", a.ID, err)
	}
	c.committed(ctx, event.New(event.KindCreated, "", a, draft.OwnerID))
	return a.Clone(), nil
}

// Revise edits title or details of a Draft or Rejected artifact in place
func (c *Coordinator) Revise(ctx context.Context, id, actorID string, revision *Revision) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "Revise", id)
	defer func() { tracing.EndSpan(span, err) }()
	from, ret, _, err := c.transition(ctx, id, func(a *artifact.Artifact) error {
		if err := a.CheckRevisable(); err != nil {
			return err
		}
		if revision.replacesDetails() {
			if err := c.details.Replace(ctx, a.ID, revision.Details); err != nil {
				return fmt.Errorf("failed to replace details of %v: %w", a.ID, err)
			}
		}
		a.Title = revision.title(a.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.committed(ctx, event.New(event.KindRevised, from, ret, actorID))
	return ret, nil
}

// Submit sends a Draft or Rejected artifact to the analysis gate. A failure
// to schedule analysis rejects the artifact instead of failing the call.
func (c *Coordinator) Submit(ctx context.Context, id, actorID string) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "Submit", id)
	defer func() { tracing.EndSpan(span, err) }()
	from, ret, _, err := c.transition(ctx, id, func(a *artifact.Artifact) error {
		if err := a.Submit(); err != nil {
			return err
		}
		if err := c.checker.Check(ctx, a); err != nil {
			return err
		}
		return c.beginAnalysis(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	c.committed(ctx, event.New(event.KindSubmitted, from, ret, actorID))
	return c.schedule(ctx, ret), nil
}

// ForceSubmit sends a Draft or Rejected artifact straight to tier-1 review.
// The caller must have verified the owner-tier privilege.
func (c *Coordinator) ForceSubmit(ctx context.Context, id, actorID string) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "ForceSubmit", id)
	defer func() { tracing.EndSpan(span, err) }()
	from, ret, _, err := c.transition(ctx, id, func(a *artifact.Artifact) error {
		if err := a.ForceSubmit(); err != nil {
			return err
		}
		if err := c.checker.Check(ctx, a); err != nil {
			return err
		}
		now := clock.Now()
		a.SubmittedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.committed(ctx, event.New(event.KindForceSubmitted, from, ret, actorID))
	return ret, nil
}

// Resubmit replaces the content of a Rejected or Approved artifact and sends
// it back to the gate. The new content must pass the completeness check.
func (c *Coordinator) Resubmit(ctx context.Context, id, actorID string, revision *Revision) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "Resubmit", id)
	defer func() { tracing.EndSpan(span, err) }()
	var diff string
	from, ret, _, err := c.transition(ctx, id, func(a *artifact.Artifact) error {
		if err := a.Resubmit(); err != nil {
			return err
		}
		previous, err := c.details.List(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("failed to load details of %v: %w", a.ID, err)
		}
		title, records := revision.title(a.Title), previous
		if revision.replacesDetails() {
			records = revision.Details
		}
		if err := completeness.Check(a.Kind, title, records); err != nil {
			return err
		}
		if revision.replacesDetails() {
			if err := c.details.Replace(ctx, a.ID, records); err != nil {
				return fmt.Errorf("failed to replace details of %v: %w", a.ID, err)
			}
		}
		diff = unifiedDiff(render(a.Title, previous), render(title, records))
		a.Title = title
		return c.beginAnalysis(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	e := event.New(event.KindResubmitted, from, ret, actorID)
	if diff != "" {
		e.With("diff", diff)
	}
	c.committed(ctx, e)
	return c.schedule(ctx, ret), nil
}

// beginAnalysis stores a pending outcome and attaches it; a must be GatePending
func (c *Coordinator) beginAnalysis(ctx context.Context, a *artifact.Artifact) error {
	now := clock.Now()
	pending := model.NewPending(idgen.New(), a.ID, now)
	if err := a.AttachOutcome(pending.ID); err != nil {
		return err
	}
	if err := c.outcomes.Save(ctx, pending); err != nil {
		return fmt.Errorf("failed to save pending outcome of %v: %w", a.ID, err)
	}
	a.SubmittedAt = &now
	return nil
}

// schedule hands the pending outcome to the scheduler and returns the latest
// snapshot, which already reflects the gate when analysis ran inline.
func (c *Coordinator) schedule(ctx context.Context, a *artifact.Artifact) *artifact.Artifact {
	request := &analysis.Request{ArtifactID: a.ID, OutcomeID: a.LatestOutcomeID, RequestedAt: clock.Now()}
	err := c.scheduler.Schedule(ctx, request)
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		c.logger.Warn("analysis scheduling failed", "artifact_id", a.ID, "outcome_id", a.LatestOutcomeID, "error", err)
		if _, fErr := c.ApplyAnalysisFailure(ctx, a.ID, a.LatestOutcomeID, err); fErr != nil {
			c.logger.Error("failed to reject unscheduled artifact", "artifact_id", a.ID, "error", fErr)
		}
	}
	latest, err := c.artifacts.Load(ctx, a.ID)
	if err != nil {
		return a
	}
	return latest
}

func unifiedDiff(before, after string) string {
	if before == after {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "previous",
		ToFile:   "resubmitted",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return diff
}
