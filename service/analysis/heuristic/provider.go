// Package heuristic scores artifacts offline from the shape of their detail
// records. It is deterministic and is the default provider of the CLI.
package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/analysis"
	"github.com/viant/reviewgate/service/completeness"
)

// Config weights the scoring.
type Config struct {
	// ExpectedRecords is the record count that earns the full coverage score.
	ExpectedRecords int `json:"expectedRecords" yaml:"expectedRecords"`
	// MinBody is the body length a record needs to count as described.
	MinBody int `json:"minBody" yaml:"minBody"`
}

// DefaultConfig returns the default weights.
func DefaultConfig() Config {
	return Config{ExpectedRecords: 3, MinBody: 40}
}

// Provider implements analysis.Provider.
type Provider struct {
	config Config
}

// New creates a provider.
func New(config Config) *Provider {
	if config.ExpectedRecords <= 0 {
		config.ExpectedRecords = DefaultConfig().ExpectedRecords
	}
	if config.MinBody <= 0 {
		config.MinBody = DefaultConfig().MinBody
	}
	return &Provider{config: config}
}

// Analyze scores title, coverage and description depth:
// 0.2 for a title, up to 0.4 for record count, up to 0.4 for described records.
func (p *Provider) Analyze(ctx context.Context, subject *analysis.Subject) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := completeness.RequiredKind(subject.Kind)
	var records []*detail.Record
	for _, r := range subject.Details {
		if r != nil && r.Kind == want {
			records = append(records, r)
		}
	}

	var findings []string
	score := 0.0
	if strings.TrimSpace(subject.Title) != "" {
		score += 0.2
	} else {
		findings = append(findings, "missing title")
	}

	coverage := float64(len(records)) / float64(p.config.ExpectedRecords)
	if coverage > 1 {
		coverage = 1
	}
	score += 0.4 * coverage
	if len(records) < p.config.ExpectedRecords {
		findings = append(findings, fmt.Sprintf("%d of %d expected %ss", len(records), p.config.ExpectedRecords, want))
	}

	described := 0
	for _, r := range records {
		if len(strings.TrimSpace(r.Body)) >= p.config.MinBody {
			described++
		}
	}
	if len(records) > 0 {
		score += 0.4 * float64(described) / float64(len(records))
		if described < len(records) {
			findings = append(findings, fmt.Sprintf("%d %ss lack a description of at least %d characters", len(records)-described, want, p.config.MinBody))
		}
	}

	narrative := "well formed"
	if len(findings) > 0 {
		narrative = strings.Join(findings, "; ")
	}
	return &analysis.Result{Confidence: analysis.Score(score), Narrative: narrative}, nil
}
