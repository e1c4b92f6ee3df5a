package memory

import (
	"context"
	"sync"

	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/dao"
	detaildao "github.com/viant/reviewgate/service/dao/detail"
)

// Store is an in-memory detaildao.Store.
type Store struct {
	mu      sync.RWMutex
	records map[string][]*detail.Record
}

// New creates an empty store.
func New() *Store {
	return &Store{records: map[string][]*detail.Record{}}
}

func (s *Store) Replace(_ context.Context, artifactID string, records []*detail.Record) error {
	if artifactID == "" {
		return dao.ErrInvalidID
	}
	normalized, err := detaildao.Normalize(artifactID, records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[artifactID] = normalized
	return nil
}

func (s *Store) List(_ context.Context, artifactID string) ([]*detail.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return detail.CloneAll(s.records[artifactID]), nil
}

func (s *Store) Count(_ context.Context, artifactID string, kind detail.Kind) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, r := range s.records[artifactID] {
		if kind == "" || r.Kind == kind {
			count++
		}
	}
	return count, nil
}

var _ detaildao.Store = (*Store)(nil)
