// Package analysis runs the automated quality analysis that feeds the gate.
//
// Submission stores a pending outcome and hands a Request to a Scheduler.
// The scheduler runs the Provider off the artifact lock, records the outcome
// and re-enters the coordinator through Sink.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
)

// ErrProviderFailure wraps provider and scheduling errors.
var ErrProviderFailure = errors.New("analysis provider failure")

// ErrInvalidScore is returned for a NaN or infinite provider confidence.
var ErrInvalidScore = errors.New("analysis provider returned a non-finite confidence")

// Subject is what a provider scores.
type Subject struct {
	ArtifactID string           `json:"artifactId"`
	OutcomeID  string           `json:"outcomeId"`
	Kind       artifact.Kind    `json:"kind"`
	Title      string           `json:"title"`
	Details    []*detail.Record `json:"details"`
}

// Result is a provider's verdict. A nil Confidence means the provider
// finished without a score.
type Result struct {
	Confidence *float64 `json:"confidence,omitempty"`
	Narrative  string   `json:"narrative"`
}

// Score returns a pointer to confidence for building a Result.
func Score(confidence float64) *float64 {
	return &confidence
}

// Provider scores a subject. Implementations may take seconds.
type Provider interface {
	Analyze(ctx context.Context, subject *Subject) (*Result, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, subject *Subject) (*Result, error)

// Analyze calls fn.
func (fn ProviderFunc) Analyze(ctx context.Context, subject *Subject) (*Result, error) {
	return fn(ctx, subject)
}

// Request asks for one pending outcome to be produced.
type Request struct {
	ArtifactID  string    `json:"artifactId"`
	OutcomeID   string    `json:"outcomeId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Sink receives finished analyses. The coordinator implements it.
type Sink interface {
	ApplyAnalysisOutcome(ctx context.Context, artifactID, outcomeID string) (*artifact.Artifact, error)
	ApplyAnalysisFailure(ctx context.Context, artifactID, outcomeID string, cause error) (*artifact.Artifact, error)
}

// Scheduler accepts analysis requests. Start binds the sink results are
// delivered to; Schedule must not be called before Start.
type Scheduler interface {
	Start(ctx context.Context, sink Sink) error
	Schedule(ctx context.Context, request *Request) error
}
