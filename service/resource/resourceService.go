package resourcesvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	resourcerepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/resource"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrBadInput         = errors.New("invalid payload")
	ErrNameTaken        = errors.New("name already in use")
	ErrCodeTaken        = errors.New("code already in use")
	ErrCategoryNotFound = errors.New("category not found")
	ErrNotFound         = errors.New("resource not found")
	ErrHasOpenLoan      = errors.New("resource has an open loan")
	ErrBadStatus        = errors.New("status not admin-settable")
)

type Row = resourcerepo.Row

type Repo interface {
	CreateCategory(ctx context.Context, c *model.ResourceCategory) (int64, error)
	ListCategories(ctx context.Context) ([]model.ResourceCategory, error)
	GetCategory(ctx context.Context, id int64) (*model.ResourceCategory, error)

	CreateResource(ctx context.Context, res *model.Resource) (int64, error)
	List(ctx context.Context) ([]Row, error)
	Get(ctx context.Context, id int64) (*Row, error)
	SetStatusGuarded(ctx context.Context, id int64, status model.ResourceStatus) (bool, error)
}

type Service interface {
	CreateCategory(ctx context.Context, c model.ResourceCategory) (int64, error)
	ListCategories(ctx context.Context) ([]model.ResourceCategory, error)

	CreateResource(ctx context.Context, categoryID int64, name, code string) (int64, error)
	List(ctx context.Context) ([]Row, error)
	Detail(ctx context.Context, id int64) (*Row, error)

	// SetStatus is the admin override (available/maintenance/retired);
	// lifecycle-owned states are off limits, as is any resource with an
	// open loan.
	SetStatus(ctx context.Context, id int64, status model.ResourceStatus) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) CreateCategory(ctx context.Context, c model.ResourceCategory) (int64, error) {
	if c.Name == "" || c.BaseWellnessHours < 0 || c.HourlyFactor < 0 ||
		c.MaxLoanDays <= 0 || c.MaxPerStudent <= 0 {
		return 0, ErrBadInput
	}
	id, err := s.r.CreateCategory(ctx, &c)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrNameTaken
		}
		return 0, err
	}
	return id, nil
}

func (s *service) ListCategories(ctx context.Context) ([]model.ResourceCategory, error) {
	return s.r.ListCategories(ctx)
}

func (s *service) CreateResource(ctx context.Context, categoryID int64, name, code string) (int64, error) {
	if name == "" || code == "" || categoryID <= 0 {
		return 0, ErrBadInput
	}
	if _, err := s.r.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCategoryNotFound
		}
		return 0, err
	}
	res := &model.Resource{
		CategoryID: categoryID,
		Name:       name,
		Code:       code,
		Status:     model.ResourceAvailable,
	}
	id, err := s.r.CreateResource(ctx, res)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrCodeTaken
		}
		return 0, err
	}
	return id, nil
}

func (s *service) List(ctx context.Context) ([]Row, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*Row, error) {
	row, err := s.r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

func (s *service) SetStatus(ctx context.Context, id int64, status model.ResourceStatus) error {
	if !status.AdminSettable() {
		return ErrBadStatus
	}
	if _, err := s.r.Get(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	ok, err := s.r.SetStatusGuarded(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrHasOpenLoan
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
