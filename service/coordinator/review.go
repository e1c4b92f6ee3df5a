package coordinator

import (
	"context"

	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/event"
	"github.com/viant/reviewgate/tracing"
)

// HumanApprove records a reviewer's approval at tier. Authorization of the
// reviewer for the tier is a caller precondition.
func (c *Coordinator) HumanApprove(ctx context.Context, id, reviewerID string, tier artifact.Tier) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "HumanApprove", id)
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"review.tier": string(tier)})
	from, ret, _, err := c.transition(ctx, id, func(a *artifact.Artifact) error {
		return a.Approve(tier, reviewerID)
	})
	if err != nil {
		return nil, err
	}
	kind := event.KindApproved
	if ret.State != artifact.StateApproved {
		kind = event.KindAdvanced
	}
	c.committed(ctx, event.New(kind, from, ret, reviewerID).With("tier", string(tier)))
	return ret, nil
}

// HumanReject records a reviewer's rejection at tier with a reason.
func (c *Coordinator) HumanReject(ctx context.Context, id, reviewerID string, tier artifact.Tier, reason string) (ret *artifact.Artifact, err error) {
	ctx, span := startSpan(ctx, "HumanReject", id)
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"review.tier": string(tier)})
	from, ret, _, err := c.transition(ctx, id, func(a *artifact.Artifact) error {
		return a.Reject(tier, reviewerID, reason)
	})
	if err != nil {
		return nil, err
	}
	c.committed(ctx, event.New(event.KindRejected, from, ret, reviewerID))
	return ret, nil
}
