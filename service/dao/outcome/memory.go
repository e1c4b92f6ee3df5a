// Package outcome wires persistence for analysis outcomes.
package outcome

import (
	"github.com/viant/reviewgate/model/analysis"
	"github.com/viant/reviewgate/service/dao"
	"github.com/viant/reviewgate/service/dao/criteria"
	"github.com/viant/reviewgate/service/dao/store"
)

// ParamArtifactID filters outcomes by owning artifact.
const ParamArtifactID = "ArtifactID"

// Store persists analysis outcomes keyed by id.
type Store = dao.Service[string, analysis.Outcome]

// NewMemory returns an in-memory outcome store.
func NewMemory() Store {
	return store.NewMemoryStore[string, analysis.Outcome](
		func(o *analysis.Outcome) string { return o.ID },
		store.WithClone[string, analysis.Outcome]((*analysis.Outcome).Clone),
		store.WithFilter[string, analysis.Outcome](func(o *analysis.Outcome, parameters []*dao.Parameter) bool {
			return criteria.Match(map[string]string{
				ParamArtifactID: o.ArtifactID,
				"Lifecycle":     string(o.Lifecycle),
			}, parameters)
		}),
	)
}
