package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viant/reviewgate/model/analysis"
	"github.com/viant/reviewgate/service/dao"
	"github.com/viant/reviewgate/service/dao/outcome"
)

const outcomeColumns = "id, artifact_id, lifecycle, confidence, narrative, created_at, completed_at"

var outcomeFilters = map[string]string{
	outcome.ParamArtifactID: "artifact_id",
	"Lifecycle":             "lifecycle",
}

// OutcomeStore implements outcome.Store on database/sql.
type OutcomeStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewOutcomeStore creates an outcome store.
func NewOutcomeStore(db *sql.DB, dialect Dialect) *OutcomeStore {
	return &OutcomeStore{db: db, dialect: dialect}
}

// Save inserts or replaces the outcome.
func (s *OutcomeStore) Save(ctx context.Context, o *analysis.Outcome) error {
	if o == nil {
		return dao.ErrNilEntity
	}
	if o.ID == "" {
		return dao.ErrInvalidID
	}
	query := s.dialect.Bind("INSERT INTO outcomes (" + outcomeColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?) " +
		"ON CONFLICT (id) DO UPDATE SET artifact_id = excluded.artifact_id, lifecycle = excluded.lifecycle, " +
		"confidence = excluded.confidence, narrative = excluded.narrative, created_at = excluded.created_at, " +
		"completed_at = excluded.completed_at")
	_, err := s.db.ExecContext(ctx, query, o.ID, o.ArtifactID, string(o.Lifecycle), nullFloat(o.Confidence),
		o.Narrative, nanos(o.CreatedAt), nullNanos(o.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to save outcome %v: %w", o.ID, err)
	}
	return nil
}

func (s *OutcomeStore) Load(ctx context.Context, id string) (*analysis.Outcome, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	query := s.dialect.Bind("SELECT " + outcomeColumns + " FROM outcomes WHERE id = ?")
	return scanOutcome(s.db.QueryRowContext(ctx, query, id))
}

func (s *OutcomeStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	result, err := s.db.ExecContext(ctx, s.dialect.Bind("DELETE FROM outcomes WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete outcome %v: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return dao.ErrNotFound
	}
	return nil
}

func (s *OutcomeStore) List(ctx context.Context, parameters ...*dao.Parameter) ([]*analysis.Outcome, error) {
	where, args := buildWhere(outcomeFilters, parameters)
	query := s.dialect.Bind("SELECT " + outcomeColumns + " FROM outcomes" + where + " ORDER BY created_at, id")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer rows.Close()
	var ret []*analysis.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, o)
	}
	return ret, rows.Err()
}

func scanOutcome(row scanner) (*analysis.Outcome, error) {
	var (
		o           analysis.Outcome
		lifecycle   string
		confidence  sql.NullFloat64
		createdAt   int64
		completedAt sql.NullInt64
	)
	err := row.Scan(&o.ID, &o.ArtifactID, &lifecycle, &confidence, &o.Narrative, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dao.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read outcome: %w", err)
	}
	o.Lifecycle = analysis.Lifecycle(lifecycle)
	o.Confidence = floatPtr(confidence)
	o.CreatedAt = fromNanos(createdAt)
	o.CompletedAt = timePtr(completedAt)
	return &o, nil
}

var _ outcome.Store = (*OutcomeStore)(nil)
