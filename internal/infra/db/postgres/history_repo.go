package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/lexiguard/internal/domain/history"
)

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

// Append inserts one completed analysis (append-only)
func (r *HistoryRepository) Append(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO analysis_history
(id, identity, file_key, response, created_at)
VALUES ($1,$2,$3,$4,$5);`
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Identity, rec.FileKey, rec.Verdict, ts,
	)
	return err
}

// List returns records for an identity, most recent first
func (r *HistoryRepository) List(ctx context.Context, identity string, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, identity, file_key, response, created_at
FROM analysis_history
WHERE identity=$1 ORDER BY created_at DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, identity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(
			&rec.ID, &rec.Identity, &rec.FileKey, &rec.Verdict, &rec.Timestamp,
		); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
