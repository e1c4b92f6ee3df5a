// Package analysis defines the outcome an analysis provider produces for one
// submission attempt of an artifact.
package analysis

import (
	"math"
	"time"
)

// Lifecycle represents the progress of an analysis run.
type Lifecycle string

const (
	LifecyclePending   Lifecycle = "pending"
	LifecycleCompleted Lifecycle = "completed"
	LifecycleFailed    Lifecycle = "failed"
)

// Outcome is the result record of one analysis run.
type Outcome struct {
	ID          string     `json:"id" yaml:"id"`
	ArtifactID  string     `json:"artifactId" yaml:"artifactId"`
	Lifecycle   Lifecycle  `json:"lifecycle" yaml:"lifecycle"`
	Confidence  *float64   `json:"confidence,omitempty" yaml:"confidence,omitempty"` // only when completed
	Narrative   string     `json:"narrative,omitempty" yaml:"narrative,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// NewPending returns a pending outcome for the artifact.
func NewPending(id, artifactID string, createdAt time.Time) *Outcome {
	return &Outcome{ID: id, ArtifactID: artifactID, Lifecycle: LifecyclePending, CreatedAt: createdAt}
}

// Complete records a finished analysis. Confidence is clamped to [0,1]; a
// NaN or infinite value is recorded as no score.
func (o *Outcome) Complete(confidence float64, narrative string, at time.Time) {
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		o.CompleteUnscored(narrative, at)
		return
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	o.Lifecycle = LifecycleCompleted
	o.Confidence = &confidence
	o.Narrative = narrative
	o.CompletedAt = &at
}

// CompleteUnscored records a finished analysis that produced no score.
func (o *Outcome) CompleteUnscored(narrative string, at time.Time) {
	o.Lifecycle = LifecycleCompleted
	o.Confidence = nil
	o.Narrative = narrative
	o.CompletedAt = &at
}

// Scored reports whether the outcome carries a usable confidence.
func (o *Outcome) Scored() bool {
	return o.Confidence != nil && !math.IsNaN(*o.Confidence) && !math.IsInf(*o.Confidence, 0)
}

// Fail records an analysis run that did not produce a score.
func (o *Outcome) Fail(narrative string, at time.Time) {
	o.Lifecycle = LifecycleFailed
	o.Confidence = nil
	o.Narrative = narrative
	o.CompletedAt = &at
}

// Clone returns a deep copy.
func (o *Outcome) Clone() *Outcome {
	if o == nil {
		return nil
	}
	ret := *o
	if o.Confidence != nil {
		c := *o.Confidence
		ret.Confidence = &c
	}
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		ret.CompletedAt = &at
	}
	return &ret
}
