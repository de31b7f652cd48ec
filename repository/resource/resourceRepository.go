// repository/resource/resourceRepository.go
package resourcerepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
)

// Row is a resource joined with its category plus the current waitlist depth.
type Row struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	Code         string               `json:"code"`
	Status       model.ResourceStatus `json:"status"`
	CategoryID   int64                `json:"category_id"`
	CategoryName string               `json:"category_name"`
	IsLowRisk    bool                 `json:"is_low_risk"`
	WaitingCount int                  `json:"waiting_count"`
	CreatedAt    time.Time            `json:"created_at"`
}

type Repo interface {
	CreateCategory(ctx context.Context, c *model.ResourceCategory) (int64, error)
	ListCategories(ctx context.Context) ([]model.ResourceCategory, error)
	GetCategory(ctx context.Context, id int64) (*model.ResourceCategory, error)

	CreateResource(ctx context.Context, res *model.Resource) (int64, error)
	List(ctx context.Context) ([]Row, error)
	Get(ctx context.Context, id int64) (*Row, error)
	// SetStatusGuarded refuses to override while a loan is open against the
	// resource; returns false when the guard blocked the update.
	SetStatusGuarded(ctx context.Context, id int64, status model.ResourceStatus) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) CreateCategory(ctx context.Context, c *model.ResourceCategory) (int64, error) {
	const q = `
		INSERT INTO resource_categories
			(name, base_wellness_hours, hourly_factor, is_low_risk, requires_approval, max_loan_days, max_per_student)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, q,
		c.Name, c.BaseWellnessHours, c.HourlyFactor, c.IsLowRisk,
		c.RequiresApproval, c.MaxLoanDays, c.MaxPerStudent,
	).Scan(&c.ID)
	return c.ID, err
}

func (r *repo) ListCategories(ctx context.Context) ([]model.ResourceCategory, error) {
	const q = `
		SELECT id, name, base_wellness_hours, hourly_factor,
		       is_low_risk, requires_approval, max_loan_days, max_per_student
		FROM resource_categories
		ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ResourceCategory
	for rows.Next() {
		var c model.ResourceCategory
		if err := rows.Scan(
			&c.ID, &c.Name, &c.BaseWellnessHours, &c.HourlyFactor,
			&c.IsLowRisk, &c.RequiresApproval, &c.MaxLoanDays, &c.MaxPerStudent,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repo) GetCategory(ctx context.Context, id int64) (*model.ResourceCategory, error) {
	const q = `
		SELECT id, name, base_wellness_hours, hourly_factor,
		       is_low_risk, requires_approval, max_loan_days, max_per_student
		FROM resource_categories
		WHERE id = $1`
	c := &model.ResourceCategory{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.BaseWellnessHours, &c.HourlyFactor,
		&c.IsLowRisk, &c.RequiresApproval, &c.MaxLoanDays, &c.MaxPerStudent,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repo) CreateResource(ctx context.Context, res *model.Resource) (int64, error) {
	const q = `
		INSERT INTO resources (category_id, name, code, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q,
		res.CategoryID, res.Name, res.Code, res.Status,
	).Scan(&res.ID, &res.CreatedAt)
	return res.ID, err
}

const rowQuery = `
	SELECT res.id, res.name, res.code, res.status,
	       res.category_id, c.name, c.is_low_risk,
	       COALESCE(COUNT(qe.*) FILTER (WHERE qe.status = 'waiting'), 0)::INT AS waiting_count,
	       res.created_at
	FROM resources res
	JOIN resource_categories c ON c.id = res.category_id
	LEFT JOIN queue_entries qe ON qe.resource_id = res.id`

func (r *repo) List(ctx context.Context) ([]Row, error) {
	q := rowQuery + `
	GROUP BY res.id, c.id
	ORDER BY res.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Code, &row.Status,
			&row.CategoryID, &row.CategoryName, &row.IsLowRisk,
			&row.WaitingCount, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repo) Get(ctx context.Context, id int64) (*Row, error) {
	q := rowQuery + `
	WHERE res.id = $1
	GROUP BY res.id, c.id`
	var row Row
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&row.ID, &row.Name, &row.Code, &row.Status,
		&row.CategoryID, &row.CategoryName, &row.IsLowRisk,
		&row.WaitingCount, &row.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repo) SetStatusGuarded(ctx context.Context, id int64, status model.ResourceStatus) (bool, error) {
	// Guard: never yank a resource out from under an open loan.
	const q = `
		UPDATE resources
		SET status = $2
		WHERE id = $1
		AND NOT EXISTS (
			SELECT 1 FROM loans
			WHERE resource_id = $1
			AND status IN ('approved','active','overdue')
		)`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}
