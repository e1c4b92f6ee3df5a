// Package memory provides an in-memory artifact store whose LoadForUpdate is
// backed by a lock.Locker (in-process keyed mutex by default).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/dao"
	artifactdao "github.com/viant/reviewgate/service/dao/artifact"
	"github.com/viant/reviewgate/service/dao/criteria"
	"github.com/viant/reviewgate/service/lock"
	lmemory "github.com/viant/reviewgate/service/lock/memory"
)

// Store implements artifactdao.Store. All API methods work with copies to
// eliminate data races between goroutines.
type Store struct {
	mu      sync.RWMutex
	records map[string]*artifact.Artifact
	locker  lock.Locker
}

// Option customises the store.
type Option func(*Store)

// WithLocker replaces the default in-process locker, e.g. with a distributed one.
func WithLocker(locker lock.Locker) Option {
	return func(s *Store) { s.locker = locker }
}

// New creates an empty store.
func New(options ...Option) *Store {
	ret := &Store{records: map[string]*artifact.Artifact{}}
	for _, option := range options {
		option(ret)
	}
	if ret.locker == nil {
		ret.locker = lmemory.New()
	}
	return ret
}

func (s *Store) Create(_ context.Context, a *artifact.Artifact) error {
	if a == nil {
		return dao.ErrNilEntity
	}
	if a.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[a.ID]; ok {
		return dao.ErrDuplicate
	}
	s.records[a.ID] = a.Clone()
	return nil
}

func (s *Store) Load(_ context.Context, id string) (*artifact.Artifact, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.records[id]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *Store) List(_ context.Context, parameters ...*dao.Parameter) ([]*artifact.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*artifact.Artifact, 0, len(s.records))
	for _, a := range s.records {
		if !criteria.Match(artifactdao.Fields(a), parameters) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) LoadForUpdate(ctx context.Context, id string) (artifactdao.Tx, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	current, err := s.Load(ctx, id)
	if err != nil {
		_ = unlock()
		return nil, err
	}
	return &tx{store: s, working: current, unlock: unlock}, nil
}

type tx struct {
	store   *Store
	working *artifact.Artifact
	staged  *artifact.Artifact
	unlock  lock.Unlock
	done    bool
}

func (t *tx) Artifact() *artifact.Artifact { return t.working }

func (t *tx) Save(_ context.Context, a *artifact.Artifact) error {
	if t.done {
		return dao.ErrTxDone
	}
	if a == nil {
		return dao.ErrNilEntity
	}
	if a.ID != t.working.ID {
		return dao.ErrInvalidID
	}
	t.staged = a.Clone()
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return dao.ErrTxDone
	}
	t.done = true
	if t.staged != nil {
		t.store.mu.Lock()
		t.store.records[t.staged.ID] = t.staged
		t.store.mu.Unlock()
	}
	return t.unlock()
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.staged = nil
	return t.unlock()
}

var _ artifactdao.Store = (*Store)(nil)
