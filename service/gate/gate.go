// Package gate implements the automated confidence checkpoint that precedes
// human review. Decide is pure; the threshold is supplied by configuration.
package gate

import (
	"fmt"
	"math"

	"github.com/viant/reviewgate/model/analysis"
)

// DefaultThreshold is the confidence cut line used when none is configured.
const DefaultThreshold = 0.70

// Decision is the binary gate verdict.
type Decision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// Gate holds a validated threshold.
type Gate struct {
	threshold float64
}

// New returns a gate for the threshold; it must lie in [0,1].
func New(threshold float64) (*Gate, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("gate threshold must be within [0,1], got %v", threshold)
	}
	return &Gate{threshold: threshold}, nil
}

// Threshold returns the configured cut line.
func (g *Gate) Threshold() float64 { return g.threshold }

// Decide applies the gate to an outcome.
func (g *Gate) Decide(outcome *analysis.Outcome) Decision {
	return Decide(outcome, g.threshold)
}

// Decide maps an analysis outcome and threshold to approve or reject.
func Decide(outcome *analysis.Outcome, threshold float64) Decision {
	if outcome == nil {
		return Decision{Reason: "analysis did not complete: missing outcome"}
	}
	if outcome.Lifecycle != analysis.LifecycleCompleted {
		return Decision{Reason: fmt.Sprintf("analysis did not complete: %s", outcome.Lifecycle)}
	}
	if !outcome.Scored() {
		return Decision{Reason: "no confidence score"}
	}
	confidence := *outcome.Confidence
	if !(confidence >= threshold) {
		reason := fmt.Sprintf("confidence %s below threshold %s", percent(confidence), percent(threshold))
		if outcome.Narrative != "" {
			reason += ": " + outcome.Narrative
		}
		return Decision{Reason: reason}
	}
	return Decision{Approved: true}
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(v*100))
}
