// Package detail defines persistence for the task/phase records attached to
// an artifact.
package detail

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/reviewgate/internal/idgen"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/dao"
)

// Store persists detail records grouped by artifact.
type Store interface {
	// Replace swaps every record of the artifact for the supplied set.
	Replace(ctx context.Context, artifactID string, records []*detail.Record) error
	// List returns the artifact's records ordered by position.
	List(ctx context.Context, artifactID string) ([]*detail.Record, error)
	// Count returns how many records of the kind the artifact has; an empty
	// kind counts every record.
	Count(ctx context.Context, artifactID string, kind detail.Kind) (int, error)
}

// Normalize copies records, binds them to the artifact, assigns missing ids
// and positions, and orders them by position.
func Normalize(artifactID string, records []*detail.Record) ([]*detail.Record, error) {
	ret := make([]*detail.Record, 0, len(records))
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("detail record %d: %w", i, dao.ErrNilEntity)
		}
		clone := r.Clone()
		clone.ArtifactID = artifactID
		if clone.ID == "" {
			clone.ID = idgen.New()
		}
		if clone.Position == 0 {
			clone.Position = i + 1
		}
		ret = append(ret, clone)
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Position < ret[j].Position })
	return ret, nil
}
