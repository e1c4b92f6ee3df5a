package event

import (
	"time"

	"github.com/viant/reviewgate/internal/clock"
	"github.com/viant/reviewgate/model/artifact"
)

// Kind names a lifecycle transition
type Kind string

const (
	KindCreated        Kind = "created"
	KindRevised        Kind = "revised"
	KindSubmitted      Kind = "submitted"
	KindForceSubmitted Kind = "forceSubmitted"
	KindResubmitted    Kind = "resubmitted"
	KindGateApproved   Kind = "gateApproved"
	KindGateRejected   Kind = "gateRejected"
	KindApproved       Kind = "approved"
	KindRejected       Kind = "rejected"
	KindAdvanced       Kind = "advanced"
)

// Lifecycle describes one committed artifact transition
type Lifecycle struct {
	Kind       Kind              `json:"kind" yaml:"kind"`
	ArtifactID string            `json:"artifactId" yaml:"artifactId"`
	OwnerID    string            `json:"ownerId,omitempty" yaml:"ownerId,omitempty"`
	ActorID    string            `json:"actorId,omitempty" yaml:"actorId,omitempty"`
	From       artifact.State    `json:"from,omitempty" yaml:"from,omitempty"`
	To         artifact.State    `json:"to" yaml:"to"`
	Tier       artifact.Tier     `json:"tier,omitempty" yaml:"tier,omitempty"`
	Reason     string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
	CreatedAt  time.Time         `json:"createdAt" yaml:"createdAt"`
}

// New creates an event for the artifact's current state
func New(kind Kind, from artifact.State, a *artifact.Artifact, actorID string) *Lifecycle {
	return &Lifecycle{
		Kind:       kind,
		ArtifactID: a.ID,
		OwnerID:    a.OwnerID,
		ActorID:    actorID,
		From:       from,
		To:         a.State,
		Tier:       a.RejectingTier,
		Reason:     a.Reason(),
		CreatedAt:  clock.Now(),
	}
}

// With sets an extra attribute
func (l *Lifecycle) With(key, value string) *Lifecycle {
	if l.Extra == nil {
		l.Extra = make(map[string]string)
	}
	l.Extra[key] = value
	return l
}
