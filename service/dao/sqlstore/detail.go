package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/dao"
	detaildao "github.com/viant/reviewgate/service/dao/detail"
)

// DetailStore implements detaildao.Store on database/sql.
type DetailStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewDetailStore creates a detail store.
func NewDetailStore(db *sql.DB, dialect Dialect) *DetailStore {
	return &DetailStore{db: db, dialect: dialect}
}

// Replace deletes and re-inserts the artifact's records in one transaction.
func (s *DetailStore) Replace(ctx context.Context, artifactID string, records []*detail.Record) (err error) {
	if artifactID == "" {
		return dao.ErrInvalidID
	}
	normalized, err := detaildao.Normalize(artifactID, records)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, s.dialect.Bind("DELETE FROM details WHERE artifact_id = ?"), artifactID); err != nil {
		return fmt.Errorf("failed to clear details of %v: %w", artifactID, err)
	}
	insert := s.dialect.Bind("INSERT INTO details (id, artifact_id, kind, position, title, body) VALUES (?, ?, ?, ?, ?, ?)")
	for _, r := range normalized {
		if _, err = tx.ExecContext(ctx, insert, r.ID, artifactID, string(r.Kind), r.Position, r.Title, r.Body); err != nil {
			return fmt.Errorf("failed to insert detail %v: %w", r.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit details of %v: %w", artifactID, err)
	}
	return nil
}

func (s *DetailStore) List(ctx context.Context, artifactID string) ([]*detail.Record, error) {
	if artifactID == "" {
		return nil, dao.ErrInvalidID
	}
	query := s.dialect.Bind("SELECT id, artifact_id, kind, position, title, body FROM details WHERE artifact_id = ? ORDER BY position, id")
	rows, err := s.db.QueryContext(ctx, query, artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list details of %v: %w", artifactID, err)
	}
	defer rows.Close()
	var ret []*detail.Record
	for rows.Next() {
		r := &detail.Record{}
		var kind string
		if err := rows.Scan(&r.ID, &r.ArtifactID, &kind, &r.Position, &r.Title, &r.Body); err != nil {
			return nil, fmt.Errorf("failed to read detail: %w", err)
		}
		r.Kind = detail.Kind(kind)
		ret = append(ret, r)
	}
	return ret, rows.Err()
}

func (s *DetailStore) Count(ctx context.Context, artifactID string, kind detail.Kind) (int, error) {
	if artifactID == "" {
		return 0, dao.ErrInvalidID
	}
	query := "SELECT COUNT(*) FROM details WHERE artifact_id = ?"
	args := []interface{}{artifactID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.Bind(query), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count details of %v: %w", artifactID, err)
	}
	return count, nil
}

var _ detaildao.Store = (*DetailStore)(nil)
