// repository/queue/queueRepository.go
package queuerepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
)

// EntryRow is a queue entry joined with its resource for listings.
type EntryRow struct {
	EntryID      int64             `json:"entry_id"`
	ResourceID   int64             `json:"resource_id"`
	ResourceName string            `json:"resource_name"`
	Position     int               `json:"position"`
	Status       model.QueueStatus `json:"status"`
	JoinedAt     time.Time         `json:"joined_at"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
}

type Repo interface {
	InTx(ctx context.Context, fn func(Repo) error) error

	// LockResource serializes position assignment per resource.
	LockResource(ctx context.Context, resourceID int64) (model.ResourceStatus, error)

	FindLiveEntry(ctx context.Context, resourceID, requesterID int64) (*model.QueueEntry, error)
	CountWaiting(ctx context.Context, resourceID int64) (int, error)
	Insert(ctx context.Context, e *model.QueueEntry) (int64, error)
	Delete(ctx context.Context, entryID int64) error
	ShiftWaitingAfter(ctx context.Context, resourceID int64, position int) error

	Head(ctx context.Context, resourceID int64) (*model.QueueEntry, error)
	GetForUpdate(ctx context.Context, entryID int64) (*model.QueueEntry, error)
	MarkNotified(ctx context.Context, entryID int64, at, expires time.Time) error
	MarkExpired(ctx context.Context, entryID int64) error

	ListExpiredNotified(ctx context.Context, now time.Time) ([]model.QueueEntry, error)
	ListMine(ctx context.Context, requesterID int64) ([]EntryRow, error)
	ListForResource(ctx context.Context, resourceID int64) ([]model.QueueEntry, error)
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repo struct {
	db *sql.DB
	q  queryer
}

func New(db *sql.DB) Repo { return &repo{db: db, q: db} }

func (r *repo) InTx(ctx context.Context, fn func(Repo) error) error {
	if _, already := r.q.(*sql.Tx); already {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&repo{db: r.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *repo) LockResource(ctx context.Context, resourceID int64) (model.ResourceStatus, error) {
	const q = `SELECT status FROM resources WHERE id = $1 FOR UPDATE`
	var st model.ResourceStatus
	err := r.q.QueryRowContext(ctx, q, resourceID).Scan(&st)
	return st, err
}

const entryCols = `id, resource_id, requester_id, position, status, joined_at, notified_at, expires_at`

func scanEntry(row *sql.Row) (*model.QueueEntry, error) {
	e := &model.QueueEntry{}
	err := row.Scan(
		&e.ID, &e.ResourceID, &e.RequesterID, &e.Position, &e.Status,
		&e.JoinedAt, &e.NotifiedAt, &e.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *repo) FindLiveEntry(ctx context.Context, resourceID, requesterID int64) (*model.QueueEntry, error) {
	q := `SELECT ` + entryCols + `
		FROM queue_entries
		WHERE resource_id = $1 AND requester_id = $2
		AND status IN ('waiting','notified')`
	e, err := scanEntry(r.q.QueryRowContext(ctx, q, resourceID, requesterID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *repo) CountWaiting(ctx context.Context, resourceID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM queue_entries WHERE resource_id = $1 AND status = 'waiting'`
	var n int
	err := r.q.QueryRowContext(ctx, q, resourceID).Scan(&n)
	return n, err
}

func (r *repo) Insert(ctx context.Context, e *model.QueueEntry) (int64, error) {
	const q = `
		INSERT INTO queue_entries (resource_id, requester_id, position, status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, q,
		e.ResourceID, e.RequesterID, e.Position, e.Status, e.JoinedAt,
	).Scan(&e.ID)
	return e.ID, err
}

func (r *repo) Delete(ctx context.Context, entryID int64) error {
	const q = `DELETE FROM queue_entries WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, entryID)
	return err
}

func (r *repo) ShiftWaitingAfter(ctx context.Context, resourceID int64, position int) error {
	const q = `
		UPDATE queue_entries
		SET position = position - 1
		WHERE resource_id = $1 AND status = 'waiting' AND position > $2`
	_, err := r.q.ExecContext(ctx, q, resourceID, position)
	return err
}

func (r *repo) Head(ctx context.Context, resourceID int64) (*model.QueueEntry, error) {
	q := `SELECT ` + entryCols + `
		FROM queue_entries
		WHERE resource_id = $1 AND status = 'waiting'
		ORDER BY position ASC
		LIMIT 1
		FOR UPDATE`
	e, err := scanEntry(r.q.QueryRowContext(ctx, q, resourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *repo) GetForUpdate(ctx context.Context, entryID int64) (*model.QueueEntry, error) {
	q := `SELECT ` + entryCols + ` FROM queue_entries WHERE id = $1 FOR UPDATE`
	return scanEntry(r.q.QueryRowContext(ctx, q, entryID))
}

func (r *repo) MarkNotified(ctx context.Context, entryID int64, at, expires time.Time) error {
	const q = `
		UPDATE queue_entries
		SET status = 'notified', notified_at = $2, expires_at = $3
		WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, entryID, at, expires)
	return err
}

func (r *repo) MarkExpired(ctx context.Context, entryID int64) error {
	const q = `UPDATE queue_entries SET status = 'expired' WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, entryID)
	return err
}

func (r *repo) ListExpiredNotified(ctx context.Context, now time.Time) ([]model.QueueEntry, error) {
	q := `SELECT ` + entryCols + `
		FROM queue_entries
		WHERE status = 'notified' AND expires_at < $1
		ORDER BY expires_at ASC`
	rows, err := r.q.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QueueEntry
	for rows.Next() {
		var e model.QueueEntry
		if err := rows.Scan(
			&e.ID, &e.ResourceID, &e.RequesterID, &e.Position, &e.Status,
			&e.JoinedAt, &e.NotifiedAt, &e.ExpiresAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repo) ListMine(ctx context.Context, requesterID int64) ([]EntryRow, error) {
	const q = `
		SELECT qe.id, qe.resource_id, res.name, qe.position, qe.status, qe.joined_at, qe.expires_at
		FROM queue_entries qe
		JOIN resources res ON res.id = qe.resource_id
		WHERE qe.requester_id = $1
		AND qe.status IN ('waiting','notified')
		ORDER BY qe.joined_at ASC`
	rows, err := r.q.QueryContext(ctx, q, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var e EntryRow
		if err := rows.Scan(
			&e.EntryID, &e.ResourceID, &e.ResourceName, &e.Position, &e.Status, &e.JoinedAt, &e.ExpiresAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repo) ListForResource(ctx context.Context, resourceID int64) ([]model.QueueEntry, error) {
	q := `SELECT ` + entryCols + `
		FROM queue_entries
		WHERE resource_id = $1
		AND status IN ('waiting','notified')
		ORDER BY position ASC`
	rows, err := r.q.QueryContext(ctx, q, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QueueEntry
	for rows.Next() {
		var e model.QueueEntry
		if err := rows.Scan(
			&e.ID, &e.ResourceID, &e.RequesterID, &e.Position, &e.Status,
			&e.JoinedAt, &e.NotifiedAt, &e.ExpiresAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
