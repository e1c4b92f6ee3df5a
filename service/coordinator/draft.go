package coordinator

import (
	"strings"

	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
)

// Draft is the owner's input for a new artifact
type Draft struct {
	Kind        artifact.Kind    `json:"kind" yaml:"kind"`
	Title       string           `json:"title" yaml:"title"`
	OwnerID     string           `json:"ownerId" yaml:"ownerId"`
	ReviewTiers int              `json:"reviewTiers" yaml:"reviewTiers"`
	Details     []*detail.Record `json:"details,omitempty" yaml:"details,omitempty"`
}

// Revision replaces content. An empty Title keeps the current title; nil
// Details keeps the current records while an empty non-nil slice clears them.
type Revision struct {
	Title   string           `json:"title,omitempty" yaml:"title,omitempty"`
	Details []*detail.Record `json:"details,omitempty" yaml:"details,omitempty"`
}

func (r *Revision) title(current string) string {
	if r == nil || strings.TrimSpace(r.Title) == "" {
		return current
	}
	return strings.TrimSpace(r.Title)
}

func (r *Revision) replacesDetails() bool {
	return r != nil && r.Details != nil
}

// render formats title and records for the resubmission diff
func render(title string, records []*detail.Record) string {
	return "title: " + title + "\n" + detail.Render(records)
}
