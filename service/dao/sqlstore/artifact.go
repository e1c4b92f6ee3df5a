package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/dao"
	artifactdao "github.com/viant/reviewgate/service/dao/artifact"
	"github.com/viant/reviewgate/service/lock"
	lmemory "github.com/viant/reviewgate/service/lock/memory"
)

const artifactColumns = "id, kind, title, owner_id, review_tiers, state, rejection_reason, rejecting_tier, " +
	"tier1_reviewer_id, tier2_reviewer_id, latest_outcome_id, submitted_at, created_at, updated_at"

var artifactFilters = map[string]string{
	dao.ParamState:   "state",
	dao.ParamOwnerID: "owner_id",
	dao.ParamKind:    "kind",
}

// ArtifactStore implements artifactdao.Store on database/sql.
type ArtifactStore struct {
	db      *sql.DB
	dialect Dialect
	locker  lock.Locker
}

// ArtifactOption customises the artifact store.
type ArtifactOption func(*ArtifactStore)

// WithLocker sets the locker used when the dialect has no row locks.
func WithLocker(locker lock.Locker) ArtifactOption {
	return func(s *ArtifactStore) { s.locker = locker }
}

// NewArtifactStore creates an artifact store.
func NewArtifactStore(db *sql.DB, dialect Dialect, options ...ArtifactOption) *ArtifactStore {
	ret := &ArtifactStore{db: db, dialect: dialect}
	for _, option := range options {
		option(ret)
	}
	if ret.locker == nil {
		ret.locker = lmemory.New()
	}
	return ret
}

func (s *ArtifactStore) Create(ctx context.Context, a *artifact.Artifact) error {
	if a == nil {
		return dao.ErrNilEntity
	}
	if a.ID == "" {
		return dao.ErrInvalidID
	}
	query := s.dialect.Bind("INSERT INTO artifacts (" + artifactColumns + ") " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING")
	result, err := s.db.ExecContext(ctx, query, artifactArgs(a)...)
	if err != nil {
		return fmt.Errorf("failed to insert artifact %v: %w", a.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert artifact %v: %w", a.ID, err)
	}
	if affected == 0 {
		return dao.ErrDuplicate
	}
	return nil
}

func (s *ArtifactStore) Load(ctx context.Context, id string) (*artifact.Artifact, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	query := s.dialect.Bind("SELECT " + artifactColumns + " FROM artifacts WHERE id = ?")
	return scanArtifact(s.db.QueryRowContext(ctx, query, id))
}

func (s *ArtifactStore) List(ctx context.Context, parameters ...*dao.Parameter) ([]*artifact.Artifact, error) {
	where, args := buildWhere(artifactFilters, parameters)
	query := s.dialect.Bind("SELECT " + artifactColumns + " FROM artifacts" + where + " ORDER BY created_at, id")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()
	var ret []*artifact.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, a)
	}
	return ret, rows.Err()
}

// LoadForUpdate opens a row-locking transaction on Postgres. Other dialects
// hold the keyed lock and write the staged artifact on Commit. Either way the
// commit only applies when the row version is still the one loaded, so a
// writer in another process gets dao.ErrConflict instead of overwriting.
func (s *ArtifactStore) LoadForUpdate(ctx context.Context, id string) (artifactdao.Tx, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	if s.dialect.RowLocking {
		return s.beginRowLock(ctx, id)
	}
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	var version int64
	query := s.dialect.Bind("SELECT " + artifactColumns + ", version FROM artifacts WHERE id = ?")
	current, err := scanArtifact(s.db.QueryRowContext(ctx, query, id), &version)
	if err != nil {
		_ = unlock()
		return nil, err
	}
	return &artifactTx{store: s, exec: s.db, working: current, version: version, finish: func(bool) error { return unlock() }}, nil
}

func (s *ArtifactStore) beginRowLock(ctx context.Context, id string) (artifactdao.Tx, error) {
	// a cancelled ctx must not roll back a transaction the caller is about to commit
	sqlTx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var version int64
	query := s.dialect.Bind("SELECT " + artifactColumns + ", version FROM artifacts WHERE id = ? FOR UPDATE")
	current, err := scanArtifact(sqlTx.QueryRowContext(ctx, query, id), &version)
	if err != nil {
		_ = sqlTx.Rollback()
		return nil, err
	}
	return &artifactTx{store: s, exec: sqlTx, working: current, version: version, finish: func(commit bool) error {
		if commit {
			return sqlTx.Commit()
		}
		return sqlTx.Rollback()
	}}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type artifactTx struct {
	store   *ArtifactStore
	exec    execer
	working *artifact.Artifact
	version int64
	staged  *artifact.Artifact
	finish  func(commit bool) error
	done    bool
}

func (t *artifactTx) Artifact() *artifact.Artifact { return t.working }

func (t *artifactTx) Save(_ context.Context, a *artifact.Artifact) error {
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

func (t *artifactTx) Commit() error {
	if t.done {
		return dao.ErrTxDone
	}
	t.done = true
	if t.staged != nil {
		if err := t.update(t.staged); err != nil {
			return errors.Join(err, t.finish(false))
		}
	}
	return t.finish(true)
}

func (t *artifactTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.finish(false)
}

func (t *artifactTx) update(a *artifact.Artifact) error {
	query := t.store.dialect.Bind("UPDATE artifacts SET kind = ?, title = ?, owner_id = ?, review_tiers = ?, state = ?, " +
		"rejection_reason = ?, rejecting_tier = ?, tier1_reviewer_id = ?, tier2_reviewer_id = ?, latest_outcome_id = ?, " +
		"submitted_at = ?, created_at = ?, updated_at = ?, version = version + 1 WHERE id = ? AND version = ?")
	args := artifactArgs(a)
	args = append(args[1:], a.ID, t.version)
	// the commit must land even if the caller's context was cancelled after the transition was applied
	result, err := t.exec.ExecContext(context.Background(), query, args...)
	if err != nil {
		return fmt.Errorf("failed to update artifact %v: %w", a.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update artifact %v: %w", a.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("artifact %v: %w", a.ID, dao.ErrConflict)
	}
	return nil
}

func artifactArgs(a *artifact.Artifact) []interface{} {
	return []interface{}{
		a.ID, string(a.Kind), a.Title, a.OwnerID, a.ReviewTiers, string(a.State),
		nullString(a.RejectionReason), string(a.RejectingTier), a.Tier1ReviewerID, a.Tier2ReviewerID,
		a.LatestOutcomeID, nullNanos(a.SubmittedAt), nanos(a.CreatedAt), nanos(a.UpdatedAt),
	}
}

// scanArtifact reads artifactColumns followed by any extra destinations.
func scanArtifact(row scanner, extra ...interface{}) (*artifact.Artifact, error) {
	var (
		a                          artifact.Artifact
		kind, state, rejectingTier string
		reason                     sql.NullString
		submittedAt                sql.NullInt64
		createdAt, updatedAt       int64
	)
	dest := []interface{}{&a.ID, &kind, &a.Title, &a.OwnerID, &a.ReviewTiers, &state, &reason, &rejectingTier,
		&a.Tier1ReviewerID, &a.Tier2ReviewerID, &a.LatestOutcomeID, &submittedAt, &createdAt, &updatedAt}
	err := row.Scan(append(dest, extra...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dao.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	a.Kind = artifact.Kind(kind)
	a.State = artifact.State(state)
	a.RejectingTier = artifact.Tier(rejectingTier)
	a.RejectionReason = stringPtr(reason)
	a.SubmittedAt = timePtr(submittedAt)
	a.CreatedAt = fromNanos(createdAt)
	a.UpdatedAt = fromNanos(updatedAt)
	return &a, nil
}

// buildWhere renders known parameters as AND-ed IN clauses; unknown names are ignored.
func buildWhere(columns map[string]string, parameters []*dao.Parameter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		column, ok := columns[parameter.Name]
		if !ok {
			continue
		}
		values := parameter.Values()
		if len(values) == 0 {
			clauses = append(clauses, "1 = 0")
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		clauses = append(clauses, column+" IN ("+placeholders+")")
		for _, v := range values {
			args = append(args, v)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var _ artifactdao.Store = (*ArtifactStore)(nil)
