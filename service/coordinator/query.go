package coordinator

import (
	"context"

	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/dao"
)

// Get returns a snapshot of the artifact
func (c *Coordinator) Get(ctx context.Context, id string) (*artifact.Artifact, error) {
	return c.artifacts.Load(ctx, id)
}

// List returns artifacts matching the parameters (dao.ParamState, dao.ParamOwnerID, dao.ParamKind)
func (c *Coordinator) List(ctx context.Context, parameters ...*dao.Parameter) ([]*artifact.Artifact, error) {
	return c.artifacts.List(ctx, parameters...)
}

// Details returns the artifact's detail records ordered by position
func (c *Coordinator) Details(ctx context.Context, id string) ([]*detail.Record, error) {
	if _, err := c.artifacts.Load(ctx, id); err != nil {
		return nil, err
	}
	return c.details.List(ctx, id)
}
