// Package completeness verifies an artifact carries enough content to be
// reviewed before it is submitted.
package completeness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	detaildao "github.com/viant/reviewgate/service/dao/detail"
)

// ErrIncomplete reports missing content; the wrapping error lists what is missing.
var ErrIncomplete = errors.New("artifact is incomplete")

// RequiredKind returns the detail kind an artifact kind must carry.
func RequiredKind(kind artifact.Kind) detail.Kind {
	switch kind {
	case artifact.KindProjectProposal:
		return detail.KindPhase
	case artifact.KindWeeklyReport:
		return detail.KindTask
	}
	return detail.KindTask
}

// Check validates a title and candidate records without touching storage.
func Check(kind artifact.Kind, title string, records []*detail.Record) error {
	want := RequiredKind(kind)
	count := 0
	for _, r := range records {
		if r != nil && r.Kind == want {
			count++
		}
	}
	return verdict(title, want, count)
}

// Checker validates stored artifacts.
type Checker struct {
	details detaildao.Store
}

// New creates a checker.
func New(details detaildao.Store) *Checker {
	return &Checker{details: details}
}

// Check validates a stored artifact and its detail records.
func (c *Checker) Check(ctx context.Context, a *artifact.Artifact) error {
	want := RequiredKind(a.Kind)
	count, err := c.details.Count(ctx, a.ID, want)
	if err != nil {
		return fmt.Errorf("failed to count %ss of %v: %w", want, a.ID, err)
	}
	return verdict(a.Title, want, count)
}

func verdict(title string, want detail.Kind, count int) error {
	var missing []string
	if strings.TrimSpace(title) == "" {
		missing = append(missing, "title")
	}
	if count == 0 {
		missing = append(missing, fmt.Sprintf("at least one %s", want))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}
