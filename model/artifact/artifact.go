// Package artifact defines the review artifact and its state machine.
//
// All transition methods are pure: they either apply completely or return a
// *TransitionError and leave the artifact untouched. Persistence, locking and
// timestamps are the caller's concern.
package artifact

import (
	"strings"
	"time"
)

// Artifact is a weekly report or project proposal moving through review.
type Artifact struct {
	ID              string     `json:"id" yaml:"id"`
	Kind            Kind       `json:"kind" yaml:"kind"`
	Title           string     `json:"title" yaml:"title"`
	OwnerID         string     `json:"ownerId" yaml:"ownerId"`
	ReviewTiers     int        `json:"reviewTiers" yaml:"reviewTiers"`
	State           State      `json:"state" yaml:"state"`
	RejectionReason *string    `json:"rejectionReason,omitempty" yaml:"rejectionReason,omitempty"`
	RejectingTier   Tier       `json:"rejectingTier,omitempty" yaml:"rejectingTier,omitempty"`
	Tier1ReviewerID string     `json:"tier1ReviewerId,omitempty" yaml:"tier1ReviewerId,omitempty"`
	Tier2ReviewerID string     `json:"tier2ReviewerId,omitempty" yaml:"tier2ReviewerId,omitempty"`
	LatestOutcomeID string     `json:"latestOutcomeId,omitempty" yaml:"latestOutcomeId,omitempty"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty" yaml:"submittedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// New returns a Draft artifact. reviewTiers outside 1..2 defaults to 1.
func New(id string, kind Kind, title, ownerID string, reviewTiers int) *Artifact {
	if reviewTiers != 2 {
		reviewTiers = 1
	}
	return &Artifact{
		ID:          id,
		Kind:        kind,
		Title:       title,
		OwnerID:     ownerID,
		ReviewTiers: reviewTiers,
		State:       StateDraft,
	}
}

// TwoTier reports whether the artifact needs a second human approval.
func (a *Artifact) TwoTier() bool {
	return a.ReviewTiers == 2
}

// Reason returns the rejection reason or an empty string.
func (a *Artifact) Reason() string {
	if a.RejectionReason == nil {
		return ""
	}
	return *a.RejectionReason
}

// Clone returns a deep copy.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	ret := *a
	if a.RejectionReason != nil {
		reason := *a.RejectionReason
		ret.RejectionReason = &reason
	}
	if a.SubmittedAt != nil {
		at := *a.SubmittedAt
		ret.SubmittedAt = &at
	}
	return &ret
}

// Submit moves a Draft or Rejected artifact to the gate.
func (a *Artifact) Submit() error {
	switch a.State {
	case StateDraft, StateRejected:
		a.enterReview(StateGatePending)
		return nil
	}
	return transitionError("submit", a.State)
}

// ForceSubmit moves a Draft or Rejected artifact straight to tier-1 review,
// bypassing the gate. Callers must have checked the owner-tier privilege.
func (a *Artifact) ForceSubmit() error {
	switch a.State {
	case StateDraft, StateRejected:
		a.enterReview(StateTier1Pending)
		return nil
	}
	return transitionError("forceSubmit", a.State)
}

// Reopen sends an approved artifact back to the gate for resubmission.
func (a *Artifact) Reopen() error {
	if a.State != StateApproved {
		return transitionError("reopen", a.State)
	}
	a.enterReview(StateGatePending)
	return nil
}

// Resubmit returns a Rejected or Approved artifact to the gate.
func (a *Artifact) Resubmit() error {
	switch a.State {
	case StateRejected:
		return a.Submit()
	case StateApproved:
		return a.Reopen()
	}
	return transitionError("resubmit", a.State)
}

// CheckRevisable reports whether title and details may be edited in place.
func (a *Artifact) CheckRevisable() error {
	switch a.State {
	case StateDraft, StateRejected:
		return nil
	}
	return transitionError("revise", a.State)
}

// AttachOutcome records the outcome that will decide the current gate pass.
// Any previous outcome reference is overwritten.
func (a *Artifact) AttachOutcome(outcomeID string) error {
	if a.State != StateGatePending {
		return transitionError("attachOutcome", a.State)
	}
	a.LatestOutcomeID = outcomeID
	return nil
}

// GateApprove passes the gate.
func (a *Artifact) GateApprove() error {
	if a.State != StateGatePending {
		return transitionError("gateApprove", a.State)
	}
	a.State = StateTier1Pending
	return nil
}

// GateReject fails the gate.
func (a *Artifact) GateReject(reason string) error {
	if a.State != StateGatePending {
		return transitionError("gateReject", a.State)
	}
	a.reject(TierGate, reason)
	return nil
}

// Tier1Approve records the tier-1 approval.
func (a *Artifact) Tier1Approve(reviewerID string) error {
	if a.State != StateTier1Pending {
		return transitionError("tier1Approve", a.State)
	}
	a.Tier1ReviewerID = reviewerID
	if a.TwoTier() {
		a.State = StateTier2Pending
	} else {
		a.State = StateApproved
	}
	return nil
}

// Tier1Reject records the tier-1 rejection.
func (a *Artifact) Tier1Reject(reviewerID, reason string) error {
	if a.State != StateTier1Pending {
		return transitionError("tier1Reject", a.State)
	}
	a.Tier1ReviewerID = reviewerID
	a.reject(TierOne, reason)
	return nil
}

// Tier2Approve records the final approval of a two-tier artifact.
func (a *Artifact) Tier2Approve(reviewerID string) error {
	if a.State != StateTier2Pending {
		return transitionError("tier2Approve", a.State)
	}
	a.Tier2ReviewerID = reviewerID
	a.State = StateApproved
	return nil
}

// Tier2Reject records the tier-2 rejection.
func (a *Artifact) Tier2Reject(reviewerID, reason string) error {
	if a.State != StateTier2Pending {
		return transitionError("tier2Reject", a.State)
	}
	a.Tier2ReviewerID = reviewerID
	a.reject(TierTwo, reason)
	return nil
}

// Approve dispatches a human approval to the matching tier method.
func (a *Artifact) Approve(tier Tier, reviewerID string) error {
	switch tier {
	case TierOne:
		return a.Tier1Approve(reviewerID)
	case TierTwo:
		return a.Tier2Approve(reviewerID)
	case TierGate:
		return transitionError("approve(gate)", a.State)
	}
	return transitionError("approve("+string(tier)+")", a.State)
}

// Reject dispatches a human rejection to the matching tier method.
func (a *Artifact) Reject(tier Tier, reviewerID, reason string) error {
	switch tier {
	case TierOne:
		return a.Tier1Reject(reviewerID, reason)
	case TierTwo:
		return a.Tier2Reject(reviewerID, reason)
	case TierGate:
		return transitionError("reject(gate)", a.State)
	}
	return transitionError("reject("+string(tier)+")", a.State)
}

// enterReview starts a new review cycle: rejection data and the previous
// cycle's reviewers are cleared.
func (a *Artifact) enterReview(next State) {
	a.State = next
	a.RejectionReason = nil
	a.RejectingTier = tierEmpty
	a.Tier1ReviewerID = ""
	a.Tier2ReviewerID = ""
}

func (a *Artifact) reject(tier Tier, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "rejected by " + string(tier)
	}
	a.State = StateRejected
	a.RejectionReason = &reason
	a.RejectingTier = tier
}
