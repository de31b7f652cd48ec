package resourcesvc

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type mockRepo struct {
	createCategoryFn   func(ctx context.Context, c *model.ResourceCategory) (int64, error)
	listCategoriesFn   func(ctx context.Context) ([]model.ResourceCategory, error)
	getCategoryFn      func(ctx context.Context, id int64) (*model.ResourceCategory, error)
	createResourceFn   func(ctx context.Context, res *model.Resource) (int64, error)
	listFn             func(ctx context.Context) ([]Row, error)
	getFn              func(ctx context.Context, id int64) (*Row, error)
	setStatusGuardedFn func(ctx context.Context, id int64, status model.ResourceStatus) (bool, error)
}

func (m *mockRepo) CreateCategory(ctx context.Context, c *model.ResourceCategory) (int64, error) {
	return m.createCategoryFn(ctx, c)
}
func (m *mockRepo) ListCategories(ctx context.Context) ([]model.ResourceCategory, error) {
	return m.listCategoriesFn(ctx)
}
func (m *mockRepo) GetCategory(ctx context.Context, id int64) (*model.ResourceCategory, error) {
	return m.getCategoryFn(ctx, id)
}
func (m *mockRepo) CreateResource(ctx context.Context, res *model.Resource) (int64, error) {
	return m.createResourceFn(ctx, res)
}
func (m *mockRepo) List(ctx context.Context) ([]Row, error) { return m.listFn(ctx) }
func (m *mockRepo) Get(ctx context.Context, id int64) (*Row, error) {
	return m.getFn(ctx, id)
}
func (m *mockRepo) SetStatusGuarded(ctx context.Context, id int64, status model.ResourceStatus) (bool, error) {
	return m.setStatusGuardedFn(ctx, id, status)
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
}

func validCategory() model.ResourceCategory {
	return model.ResourceCategory{
		Name: "Deportes", BaseWellnessHours: 2, HourlyFactor: 0.5,
		IsLowRisk: true, MaxLoanDays: 5, MaxPerStudent: 2,
	}
}

func TestCreateCategory(t *testing.T) {
	m := &mockRepo{
		createCategoryFn: func(ctx context.Context, c *model.ResourceCategory) (int64, error) { return 7, nil },
	}
	s := New(m)
	ctx := context.Background()

	id, err := s.CreateCategory(ctx, validCategory())
	if err != nil || id != 7 {
		t.Fatalf("got (%d, %v); want (7, nil)", id, err)
	}

	bad := validCategory()
	bad.Name = ""
	if _, err := s.CreateCategory(ctx, bad); !errors.Is(err, ErrBadInput) {
		t.Fatalf("err = %v; want ErrBadInput for empty name", err)
	}

	bad = validCategory()
	bad.MaxPerStudent = 0
	if _, err := s.CreateCategory(ctx, bad); !errors.Is(err, ErrBadInput) {
		t.Fatalf("err = %v; want ErrBadInput for zero quota", err)
	}

	m.createCategoryFn = func(ctx context.Context, c *model.ResourceCategory) (int64, error) {
		return 0, uniqueViolation()
	}
	if _, err := s.CreateCategory(ctx, validCategory()); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("err = %v; want ErrNameTaken", err)
	}
}

func TestCreateResource(t *testing.T) {
	cat := validCategory()
	cat.ID = 1
	m := &mockRepo{
		getCategoryFn: func(ctx context.Context, id int64) (*model.ResourceCategory, error) {
			if id != 1 {
				return nil, sql.ErrNoRows
			}
			return &cat, nil
		},
		createResourceFn: func(ctx context.Context, res *model.Resource) (int64, error) {
			if res.Status != model.ResourceAvailable {
				t.Fatalf("new resource status = %s; want available", res.Status)
			}
			return 42, nil
		},
	}
	s := New(m)
	ctx := context.Background()

	id, err := s.CreateResource(ctx, 1, "Balón", "DEP-001")
	if err != nil || id != 42 {
		t.Fatalf("got (%d, %v); want (42, nil)", id, err)
	}

	if _, err := s.CreateResource(ctx, 99, "Balón", "DEP-001"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("err = %v; want ErrCategoryNotFound", err)
	}
	if _, err := s.CreateResource(ctx, 1, "", "DEP-001"); !errors.Is(err, ErrBadInput) {
		t.Fatalf("err = %v; want ErrBadInput", err)
	}

	m.createResourceFn = func(ctx context.Context, res *model.Resource) (int64, error) {
		return 0, uniqueViolation()
	}
	if _, err := s.CreateResource(ctx, 1, "Balón", "DEP-001"); !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("err = %v; want ErrCodeTaken", err)
	}
}

func TestSetStatus(t *testing.T) {
	row := &Row{}
	m := &mockRepo{
		getFn: func(ctx context.Context, id int64) (*Row, error) {
			if id != 10 {
				return nil, sql.ErrNoRows
			}
			return row, nil
		},
		setStatusGuardedFn: func(ctx context.Context, id int64, status model.ResourceStatus) (bool, error) {
			return true, nil
		},
	}
	s := New(m)
	ctx := context.Background()

	if err := s.SetStatus(ctx, 10, model.ResourceMaintenance); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	// borrowed and reserved belong to the loan lifecycle
	if err := s.SetStatus(ctx, 10, model.ResourceBorrowed); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("err = %v; want ErrBadStatus", err)
	}
	if err := s.SetStatus(ctx, 99, model.ResourceRetired); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}

	m.setStatusGuardedFn = func(ctx context.Context, id int64, status model.ResourceStatus) (bool, error) {
		return false, nil
	}
	if err := s.SetStatus(ctx, 10, model.ResourceRetired); !errors.Is(err, ErrHasOpenLoan) {
		t.Fatalf("err = %v; want ErrHasOpenLoan", err)
	}
}
