package artifact

import "fmt"

// State represents the review state of an artifact.
type State string

const (
	StateDraft        State = "draft"
	StateGatePending  State = "gatePending"
	StateTier1Pending State = "tier1Pending"
	StateTier2Pending State = "tier2Pending"
	StateApproved     State = "approved"
	StateRejected     State = "rejected"
)

// States lists every state in graph order.
func States() []State {
	return []State{StateDraft, StateGatePending, StateTier1Pending, StateTier2Pending, StateApproved, StateRejected}
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	switch s {
	case StateDraft, StateGatePending, StateTier1Pending, StateTier2Pending, StateApproved, StateRejected:
		return true
	}
	return false
}

// IsPending reports whether the artifact is waiting on the gate or a reviewer.
func (s State) IsPending() bool {
	switch s {
	case StateGatePending, StateTier1Pending, StateTier2Pending:
		return true
	case StateDraft, StateApproved, StateRejected:
		return false
	}
	return false
}

// ParseState converts text into a State.
func ParseState(text string) (State, error) {
	s := State(text)
	if !s.Valid() {
		return "", fmt.Errorf("unknown state: %q", text)
	}
	return s, nil
}

// Tier identifies the checkpoint that judged an artifact.
type Tier string

const (
	TierGate  Tier = "gate"
	TierOne   Tier = "tier1"
	TierTwo   Tier = "tier2"
	tierEmpty Tier = ""
)

// Valid reports whether t is a declared tier.
func (t Tier) Valid() bool {
	switch t {
	case TierGate, TierOne, TierTwo:
		return true
	}
	return false
}

// IsHuman reports whether t is a human review tier.
func (t Tier) IsHuman() bool {
	return t == TierOne || t == TierTwo
}

// ParseTier converts text ("gate", "tier1", "tier2", "1", "2") into a Tier.
func ParseTier(text string) (Tier, error) {
	switch text {
	case "gate":
		return TierGate, nil
	case "tier1", "1":
		return TierOne, nil
	case "tier2", "2":
		return TierTwo, nil
	}
	return tierEmpty, fmt.Errorf("unknown tier: %q", text)
}

// PendingState returns the state in which a tier is expected to act.
func (t Tier) PendingState() State {
	switch t {
	case TierGate:
		return StateGatePending
	case TierOne:
		return StateTier1Pending
	case TierTwo:
		return StateTier2Pending
	}
	return ""
}

// Kind identifies the artifact type.
type Kind string

const (
	KindWeeklyReport    Kind = "weeklyReport"
	KindProjectProposal Kind = "projectProposal"
)

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	return k == KindWeeklyReport || k == KindProjectProposal
}

// ParseKind converts text ("weeklyReport", "report", "projectProposal", "proposal") into a Kind.
func ParseKind(text string) (Kind, error) {
	switch text {
	case "weeklyReport", "report":
		return KindWeeklyReport, nil
	case "projectProposal", "proposal":
		return KindProjectProposal, nil
	}
	return "", fmt.Errorf("unknown artifact kind: %q", text)
}
