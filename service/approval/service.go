package approval

import (
	"context"
	"fmt"

	"github.com/viant/reviewgate/internal/clock"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/dao"
)

// Reviewer is the part of the coordinator the review desk needs
type Reviewer interface {
	List(ctx context.Context, parameters ...*dao.Parameter) ([]*artifact.Artifact, error)
	HumanApprove(ctx context.Context, id, reviewerID string, tier artifact.Tier) (*artifact.Artifact, error)
	HumanReject(ctx context.Context, id, reviewerID string, tier artifact.Tier, reason string) (*artifact.Artifact, error)
}

// Service lists pending reviews and records decisions
type Service struct {
	reviewer Reviewer
}

// New creates a review desk over the coordinator
func New(reviewer Reviewer) *Service {
	return &Service{reviewer: reviewer}
}

// ListPending returns artifacts waiting on a human tier, oldest first
func (s *Service) ListPending(ctx context.Context, filter Filter) ([]*Request, error) {
	var states []string
	switch filter.Tier {
	case artifact.TierOne:
		states = []string{string(artifact.StateTier1Pending)}
	case artifact.TierTwo:
		states = []string{string(artifact.StateTier2Pending)}
	case "":
		states = []string{string(artifact.StateTier1Pending), string(artifact.StateTier2Pending)}
	default:
		return nil, fmt.Errorf("tier %q has no human reviewers", filter.Tier)
	}
	parameters := []*dao.Parameter{dao.NewParameter(dao.ParamState, states...)}
	if filter.OwnerID != "" {
		parameters = append(parameters, dao.NewParameter(dao.ParamOwnerID, filter.OwnerID))
	}
	if filter.Kind != "" {
		parameters = append(parameters, dao.NewParameter(dao.ParamKind, string(filter.Kind)))
	}
	artifacts, err := s.reviewer.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	ret := make([]*Request, 0, len(artifacts))
	for _, a := range artifacts {
		ret = append(ret, &Request{
			ArtifactID:  a.ID,
			Kind:        a.Kind,
			Title:       a.Title,
			OwnerID:     a.OwnerID,
			Tier:        pendingTier(a.State),
			ReviewTiers: a.ReviewTiers,
			WaitingFrom: a.UpdatedAt,
		})
	}
	return ret, nil
}

// Decide approves or rejects the artifact at tier on behalf of reviewerID
func (s *Service) Decide(ctx context.Context, artifactID, reviewerID string, tier artifact.Tier, approved bool, reason string) (*Decision, error) {
	var a *artifact.Artifact
	var err error
	if approved {
		a, err = s.reviewer.HumanApprove(ctx, artifactID, reviewerID, tier)
	} else {
		a, err = s.reviewer.HumanReject(ctx, artifactID, reviewerID, tier, reason)
	}
	if err != nil {
		return nil, err
	}
	return &Decision{
		ArtifactID: artifactID,
		Tier:       tier,
		ReviewerID: reviewerID,
		Approved:   approved,
		Reason:     a.Reason(),
		State:      a.State,
		DecidedAt:  clock.Now(),
	}, nil
}

func pendingTier(state artifact.State) artifact.Tier {
	if state == artifact.StateTier2Pending {
		return artifact.TierTwo
	}
	return artifact.TierOne
}
