package approval

import (
	"time"

	"github.com/viant/reviewgate/model/artifact"
)

// Request is an artifact waiting on a human reviewer
type Request struct {
	ArtifactID  string        `json:"artifactId"`
	Kind        artifact.Kind `json:"kind"`
	Title       string        `json:"title"`
	OwnerID     string        `json:"ownerId"`
	Tier        artifact.Tier `json:"tier"`
	ReviewTiers int           `json:"reviewTiers"`
	WaitingFrom time.Time     `json:"waitingFrom"`
}

// Decision records a reviewer's verdict
type Decision struct {
	ArtifactID string         `json:"artifactId"`
	Tier       artifact.Tier  `json:"tier"`
	ReviewerID string         `json:"reviewerId"`
	Approved   bool           `json:"approved"`
	Reason     string         `json:"reason,omitempty"`
	State      artifact.State `json:"state"`
	DecidedAt  time.Time      `json:"decidedAt"`
}

// Filter narrows ListPending; zero values match everything
type Filter struct {
	Tier    artifact.Tier
	OwnerID string
	Kind    artifact.Kind
}
