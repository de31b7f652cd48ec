// repository/loan/loanRepository.go
package loanrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
)

// HistoryRow is a loan joined with its resource for listings.
type HistoryRow struct {
	LoanID       int64            `json:"loan_id"`
	RequesterID  int64            `json:"requester_id"`
	ResourceID   int64            `json:"resource_id"`
	ResourceName string           `json:"resource_name"`
	ResourceCode string           `json:"resource_code"`
	Status       model.LoanStatus `json:"status"`
	RequestedAt  time.Time        `json:"requested_at"`
	DueDate      *time.Time       `json:"due_date,omitempty"`
	ReturnedAt   *time.Time       `json:"returned_at,omitempty"`
}

// Repo owns every row the loan lifecycle touches: loans, the resource
// status gate, awards, and the queue bookkeeping that request/return
// flows trigger. InTx hands the callback a transaction-bound Repo so a
// whole lifecycle operation commits or rolls back as one unit.
type Repo interface {
	InTx(ctx context.Context, fn func(Repo) error) error

	// Resources
	GetResourceForUpdate(ctx context.Context, id int64) (*model.Resource, error)
	SetResourceStatus(ctx context.Context, id int64, status model.ResourceStatus) error
	GetCategory(ctx context.Context, id int64) (*model.ResourceCategory, error)

	// Eligibility inputs
	CountOpenLoans(ctx context.Context, requesterID int64) (int, error)
	CountOpenLoansInCategory(ctx context.Context, requesterID, categoryID int64) (int, error)
	HasUnresolvedIssue(ctx context.Context, requesterID, resourceID int64) (bool, error)

	// ResourceHeldByOther reports whether a different loan already holds
	// the resource in approved or active state.
	ResourceHeldByOther(ctx context.Context, resourceID, loanID int64) (bool, error)

	// Loans
	InsertLoan(ctx context.Context, l *model.Loan) (int64, error)
	GetLoanForUpdate(ctx context.Context, id int64) (*model.Loan, error)
	MarkApproved(ctx context.Context, id int64, at time.Time) error
	MarkRejected(ctx context.Context, id int64, at time.Time) error
	MarkDelivered(ctx context.Context, id int64, at, due time.Time) error
	MarkReturned(ctx context.Context, id int64, at time.Time) error
	MarkClosed(ctx context.Context, id int64, status model.LoanStatus, at time.Time) error
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	DeleteLoan(ctx context.Context, id int64) error
	SetExtensionRequested(ctx context.Context, id int64, reason string) error
	SetExtensionDecision(ctx context.Context, id int64, approved bool, newDue *time.Time) error
	SetRating(ctx context.Context, id int64, rating int) error
	ListMine(ctx context.Context, requesterID int64) ([]HistoryRow, error)
	ListByStatus(ctx context.Context, status model.LoanStatus) ([]HistoryRow, error)

	// Queue bookkeeping driven by the lifecycle
	HasLiveQueueEntry(ctx context.Context, resourceID, requesterID int64) (bool, error)
	CountWaiting(ctx context.Context, resourceID int64) (int, error)
	InsertQueueEntry(ctx context.Context, e *model.QueueEntry) (int64, error)
	QueueHeadForUpdate(ctx context.Context, resourceID int64) (*model.QueueEntry, error)
	GetQueueEntryForUpdate(ctx context.Context, entryID int64) (*model.QueueEntry, error)
	MarkQueueNotified(ctx context.Context, entryID int64, at, expires time.Time) error
	MarkQueueEnrolled(ctx context.Context, entryID int64) error
	MarkQueueExpired(ctx context.Context, entryID int64) error
	ShiftWaitingAfter(ctx context.Context, resourceID int64, position int) error

	// Awards
	InsertAward(ctx context.Context, a *model.WellnessHourAward) (int64, error)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
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

// Resources

func (r *repo) GetResourceForUpdate(ctx context.Context, id int64) (*model.Resource, error) {
	const q = `
		SELECT id, category_id, name, code, status, created_at
		FROM resources
		WHERE id = $1
		FOR UPDATE`
	res := &model.Resource{}
	err := r.q.QueryRowContext(ctx, q, id).
		Scan(&res.ID, &res.CategoryID, &res.Name, &res.Code, &res.Status, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *repo) SetResourceStatus(ctx context.Context, id int64, status model.ResourceStatus) error {
	const q = `UPDATE resources SET status = $2 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, status)
	return err
}

func (r *repo) GetCategory(ctx context.Context, id int64) (*model.ResourceCategory, error) {
	const q = `
		SELECT id, name, base_wellness_hours, hourly_factor,
		       is_low_risk, requires_approval, max_loan_days, max_per_student
		FROM resource_categories
		WHERE id = $1`
	c := &model.ResourceCategory{}
	err := r.q.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.BaseWellnessHours, &c.HourlyFactor,
		&c.IsLowRisk, &c.RequiresApproval, &c.MaxLoanDays, &c.MaxPerStudent,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Eligibility inputs

func (r *repo) CountOpenLoans(ctx context.Context, requesterID int64) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM loans
		WHERE requester_id = $1
		AND status IN ('pending','approved','active','overdue')`
	var n int
	err := r.q.QueryRowContext(ctx, q, requesterID).Scan(&n)
	return n, err
}

func (r *repo) CountOpenLoansInCategory(ctx context.Context, requesterID, categoryID int64) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM loans l
		JOIN resources res ON res.id = l.resource_id
		WHERE l.requester_id = $1
		AND res.category_id = $2
		AND l.status IN ('pending','approved','active','overdue')`
	var n int
	err := r.q.QueryRowContext(ctx, q, requesterID, categoryID).Scan(&n)
	return n, err
}

func (r *repo) HasUnresolvedIssue(ctx context.Context, requesterID, resourceID int64) (bool, error) {
	// Overdue, lost or damaged history against this exact resource blocks
	// auto-approval until an admin clears it.
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE requester_id = $1
			AND resource_id = $2
			AND status IN ('overdue','lost','damaged')
		)`
	var ok bool
	err := r.q.QueryRowContext(ctx, q, requesterID, resourceID).Scan(&ok)
	return ok, err
}

func (r *repo) ResourceHeldByOther(ctx context.Context, resourceID, loanID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE resource_id = $1
			AND id <> $2
			AND status IN ('approved','active')
		)`
	var ok bool
	err := r.q.QueryRowContext(ctx, q, resourceID, loanID).Scan(&ok)
	return ok, err
}

// Loans

func (r *repo) InsertLoan(ctx context.Context, l *model.Loan) (int64, error) {
	const q = `
		INSERT INTO loans (requester_id, resource_id, status, requested_at, approved_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, q,
		l.RequesterID, l.ResourceID, l.Status, l.RequestedAt, l.ApprovedAt,
	).Scan(&l.ID)
	return l.ID, err
}

const loanCols = `
	id, requester_id, resource_id, status, requested_at,
	approved_at, rejected_at, delivered_at, returned_at, closed_at, due_date,
	extension_requested, extension_reason, extension_approved, rating`

func scanLoan(row *sql.Row) (*model.Loan, error) {
	l := &model.Loan{}
	err := row.Scan(
		&l.ID, &l.RequesterID, &l.ResourceID, &l.Status, &l.RequestedAt,
		&l.ApprovedAt, &l.RejectedAt, &l.DeliveredAt, &l.ReturnedAt, &l.ClosedAt, &l.DueDate,
		&l.ExtensionRequested, &l.ExtensionReason, &l.ExtensionApproved, &l.Rating,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) GetLoanForUpdate(ctx context.Context, id int64) (*model.Loan, error) {
	q := `SELECT ` + loanCols + ` FROM loans WHERE id = $1 FOR UPDATE`
	return scanLoan(r.q.QueryRowContext(ctx, q, id))
}

func (r *repo) MarkApproved(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE loans SET status = 'approved', approved_at = $2 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, at)
	return err
}

func (r *repo) MarkRejected(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE loans SET status = 'rejected', rejected_at = $2, closed_at = $2 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, at)
	return err
}

func (r *repo) MarkDelivered(ctx context.Context, id int64, at, due time.Time) error {
	const q = `UPDATE loans SET status = 'active', delivered_at = $2, due_date = $3 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, at, due)
	return err
}

func (r *repo) MarkReturned(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE loans SET status = 'returned', returned_at = $2, closed_at = $2 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, at)
	return err
}

func (r *repo) MarkClosed(ctx context.Context, id int64, status model.LoanStatus, at time.Time) error {
	const q = `UPDATE loans SET status = $2, closed_at = $3 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, status, at)
	return err
}

// MarkOverdue flips every active loan past its due date; returns how many.
func (r *repo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE loans
		SET status = 'overdue'
		WHERE status = 'active'
		AND due_date IS NOT NULL
		AND due_date < $1`
	res, err := r.q.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) DeleteLoan(ctx context.Context, id int64) error {
	const q = `DELETE FROM loans WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id)
	return err
}

func (r *repo) SetExtensionRequested(ctx context.Context, id int64, reason string) error {
	const q = `
		UPDATE loans
		SET extension_requested = TRUE, extension_reason = $2, extension_approved = NULL
		WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, reason)
	return err
}

func (r *repo) SetExtensionDecision(ctx context.Context, id int64, approved bool, newDue *time.Time) error {
	const q = `
		UPDATE loans
		SET extension_approved = $2, due_date = COALESCE($3, due_date)
		WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, approved, newDue)
	return err
}

func (r *repo) SetRating(ctx context.Context, id int64, rating int) error {
	const q = `UPDATE loans SET rating = $2 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, id, rating)
	return err
}

const historyQuery = `
	SELECT l.id, l.requester_id, l.resource_id, res.name, res.code,
	       l.status, l.requested_at, l.due_date, l.returned_at
	FROM loans l
	JOIN resources res ON res.id = l.resource_id`

func (r *repo) listHistory(ctx context.Context, q string, args ...any) ([]HistoryRow, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.LoanID, &h.RequesterID, &h.ResourceID, &h.ResourceName, &h.ResourceCode,
			&h.Status, &h.RequestedAt, &h.DueDate, &h.ReturnedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repo) ListMine(ctx context.Context, requesterID int64) ([]HistoryRow, error) {
	q := historyQuery + `
	WHERE l.requester_id = $1
	ORDER BY l.requested_at DESC, l.id DESC`
	return r.listHistory(ctx, q, requesterID)
}

func (r *repo) ListByStatus(ctx context.Context, status model.LoanStatus) ([]HistoryRow, error) {
	q := historyQuery + `
	WHERE l.status = $1
	ORDER BY l.requested_at ASC, l.id ASC`
	return r.listHistory(ctx, q, status)
}

// Queue bookkeeping

func (r *repo) HasLiveQueueEntry(ctx context.Context, resourceID, requesterID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM queue_entries
			WHERE resource_id = $1 AND requester_id = $2
			AND status IN ('waiting','notified')
		)`
	var ok bool
	err := r.q.QueryRowContext(ctx, q, resourceID, requesterID).Scan(&ok)
	return ok, err
}

func (r *repo) CountWaiting(ctx context.Context, resourceID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM queue_entries WHERE resource_id = $1 AND status = 'waiting'`
	var n int
	err := r.q.QueryRowContext(ctx, q, resourceID).Scan(&n)
	return n, err
}

func (r *repo) InsertQueueEntry(ctx context.Context, e *model.QueueEntry) (int64, error) {
	const q = `
		INSERT INTO queue_entries (resource_id, requester_id, position, status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, q,
		e.ResourceID, e.RequesterID, e.Position, e.Status, e.JoinedAt,
	).Scan(&e.ID)
	return e.ID, err
}

const queueCols = `id, resource_id, requester_id, position, status, joined_at, notified_at, expires_at`

func scanQueueEntry(row *sql.Row) (*model.QueueEntry, error) {
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

// QueueHeadForUpdate returns nil when nobody is waiting.
func (r *repo) QueueHeadForUpdate(ctx context.Context, resourceID int64) (*model.QueueEntry, error) {
	q := `SELECT ` + queueCols + `
		FROM queue_entries
		WHERE resource_id = $1 AND status = 'waiting'
		ORDER BY position ASC
		LIMIT 1
		FOR UPDATE`
	e, err := scanQueueEntry(r.q.QueryRowContext(ctx, q, resourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *repo) GetQueueEntryForUpdate(ctx context.Context, entryID int64) (*model.QueueEntry, error) {
	q := `SELECT ` + queueCols + ` FROM queue_entries WHERE id = $1 FOR UPDATE`
	return scanQueueEntry(r.q.QueryRowContext(ctx, q, entryID))
}

func (r *repo) MarkQueueNotified(ctx context.Context, entryID int64, at, expires time.Time) error {
	const q = `
		UPDATE queue_entries
		SET status = 'notified', notified_at = $2, expires_at = $3
		WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, entryID, at, expires)
	return err
}

func (r *repo) MarkQueueEnrolled(ctx context.Context, entryID int64) error {
	const q = `UPDATE queue_entries SET status = 'enrolled' WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, entryID)
	return err
}

func (r *repo) MarkQueueExpired(ctx context.Context, entryID int64) error {
	const q = `UPDATE queue_entries SET status = 'expired' WHERE id = $1`
	_, err := r.q.ExecContext(ctx, q, entryID)
	return err
}

// ShiftWaitingAfter closes the gap left by an entry that moved out of the
// waiting sequence at the given position.
func (r *repo) ShiftWaitingAfter(ctx context.Context, resourceID int64, position int) error {
	const q = `
		UPDATE queue_entries
		SET position = position - 1
		WHERE resource_id = $1 AND status = 'waiting' AND position > $2`
	_, err := r.q.ExecContext(ctx, q, resourceID, position)
	return err
}

// Awards

func (r *repo) InsertAward(ctx context.Context, a *model.WellnessHourAward) (int64, error) {
	const q = `
		INSERT INTO wellness_hour_awards (requester_id, hours, source_type, source_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, q,
		a.RequesterID, a.Hours, a.SourceType, a.SourceID, a.Description, a.CreatedAt,
	).Scan(&a.ID)
	return a.ID, err
}
