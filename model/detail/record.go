// Package detail defines the child records (report tasks, proposal phases)
// attached to an artifact.
package detail

import (
	"fmt"
	"strings"
)

// Kind identifies the record type.
type Kind string

const (
	KindTask  Kind = "task"
	KindPhase Kind = "phase"
)

// Record is one task or phase entry of an artifact.
type Record struct {
	ID         string `json:"id" yaml:"id"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Kind       Kind   `json:"kind" yaml:"kind"`
	Position   int    `json:"position" yaml:"position"`
	Title      string `json:"title" yaml:"title"`
	Body       string `json:"body,omitempty" yaml:"body,omitempty"`
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	ret := *r
	return &ret
}

// Render formats records one per line; used for diffs and provider prompts.
func Render(records []*Record) string {
	builder := strings.Builder{}
	for _, r := range records {
		if r == nil {
			continue
		}
		builder.WriteString(fmt.Sprintf("[%s #%d] %s", r.Kind, r.Position, r.Title))
		if body := strings.TrimSpace(r.Body); body != "" {
			builder.WriteString(": ")
			builder.WriteString(strings.ReplaceAll(body, "\n", " "))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// CloneAll copies a slice of records.
func CloneAll(records []*Record) []*Record {
	ret := make([]*Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			ret = append(ret, r.Clone())
		}
	}
	return ret
}
