// Package artifact defines the artifact persistence contract, including the
// row-exclusive LoadForUpdate capability the coordinator relies on.
package artifact

import (
	"context"

	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/dao"
)

// Tx is an exclusive read-modify-write window on one artifact. No other Tx
// for the same id can be open until Commit or Rollback returns.
type Tx interface {
	// Artifact returns the working copy loaded under the lock.
	Artifact() *artifact.Artifact
	// Save stages the artifact; it becomes visible on Commit.
	Save(ctx context.Context, a *artifact.Artifact) error
	// Commit persists staged changes and releases the lock.
	Commit() error
	// Rollback discards staged changes and releases the lock. It is safe to
	// call after Commit.
	Rollback() error
}

// Store persists artifacts.
type Store interface {
	// Create inserts a new artifact; dao.ErrDuplicate if the id exists.
	Create(ctx context.Context, a *artifact.Artifact) error
	// Load returns a snapshot without locking; dao.ErrNotFound if absent.
	Load(ctx context.Context, id string) (*artifact.Artifact, error)
	// List returns snapshots filtered by dao.ParamState, dao.ParamOwnerID, dao.ParamKind.
	List(ctx context.Context, parameters ...*dao.Parameter) ([]*artifact.Artifact, error)
	// LoadForUpdate locks the artifact for the caller's transaction.
	LoadForUpdate(ctx context.Context, id string) (Tx, error)
}

// Fields exposes the filterable attributes of an artifact.
func Fields(a *artifact.Artifact) map[string]string {
	return map[string]string{
		dao.ParamState:   string(a.State),
		dao.ParamOwnerID: a.OwnerID,
		dao.ParamKind:    string(a.Kind),
	}
}
