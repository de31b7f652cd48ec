// repository/award/awardRepository.go
package awardrepo

import (
	"context"
	"database/sql"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
)

type Repo interface {
	Insert(ctx context.Context, a *model.WellnessHourAward) (int64, error)
	// DeleteBySource removes the award created by a specific trigger
	// (e.g., un-marking event attendance); returns how many rows went.
	DeleteBySource(ctx context.Context, sourceType model.AwardSource, sourceID int64) (int64, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]model.WellnessHourAward, error)
	TotalByRequester(ctx context.Context, requesterID int64) (float64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, a *model.WellnessHourAward) (int64, error) {
	const q = `
		INSERT INTO wellness_hour_awards (requester_id, hours, source_type, source_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q,
		a.RequesterID, a.Hours, a.SourceType, a.SourceID, a.Description,
	).Scan(&a.ID, &a.CreatedAt)
	return a.ID, err
}

func (r *repo) DeleteBySource(ctx context.Context, sourceType model.AwardSource, sourceID int64) (int64, error) {
	const q = `DELETE FROM wellness_hour_awards WHERE source_type = $1 AND source_id = $2`
	res, err := r.db.ExecContext(ctx, q, sourceType, sourceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) ListByRequester(ctx context.Context, requesterID int64) ([]model.WellnessHourAward, error) {
	const q = `
		SELECT id, requester_id, hours, source_type, source_id, description, created_at
		FROM wellness_hour_awards
		WHERE requester_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WellnessHourAward
	for rows.Next() {
		var a model.WellnessHourAward
		if err := rows.Scan(
			&a.ID, &a.RequesterID, &a.Hours, &a.SourceType, &a.SourceID, &a.Description, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) TotalByRequester(ctx context.Context, requesterID int64) (float64, error) {
	const q = `
		SELECT COALESCE(SUM(hours), 0)
		FROM wellness_hour_awards
		WHERE requester_id = $1`
	var total float64
	err := r.db.QueryRowContext(ctx, q, requesterID).Scan(&total)
	return total, err
}
