package awardsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type mockRepo struct {
	insertFn           func(ctx context.Context, a *model.WellnessHourAward) (int64, error)
	deleteBySourceFn   func(ctx context.Context, sourceType model.AwardSource, sourceID int64) (int64, error)
	listByRequesterFn  func(ctx context.Context, requesterID int64) ([]model.WellnessHourAward, error)
	totalByRequesterFn func(ctx context.Context, requesterID int64) (float64, error)
}

func (m *mockRepo) Insert(ctx context.Context, a *model.WellnessHourAward) (int64, error) {
	return m.insertFn(ctx, a)
}
func (m *mockRepo) DeleteBySource(ctx context.Context, st model.AwardSource, id int64) (int64, error) {
	return m.deleteBySourceFn(ctx, st, id)
}
func (m *mockRepo) ListByRequester(ctx context.Context, requesterID int64) ([]model.WellnessHourAward, error) {
	return m.listByRequesterFn(ctx, requesterID)
}
func (m *mockRepo) TotalByRequester(ctx context.Context, requesterID int64) (float64, error) {
	return m.totalByRequesterFn(ctx, requesterID)
}

func TestGrant(t *testing.T) {
	m := &mockRepo{
		insertFn: func(ctx context.Context, a *model.WellnessHourAward) (int64, error) { return 5, nil },
	}
	s := New(m)
	ctx := context.Background()

	id, err := s.Grant(ctx, 100, 1.5, model.AwardSourceEvent, 33, "Taller de yoga")
	if err != nil || id != 5 {
		t.Fatalf("got (%d, %v); want (5, nil)", id, err)
	}

	if _, err := s.Grant(ctx, 100, 0, model.AwardSourceEvent, 33, ""); !errors.Is(err, ErrBadInput) {
		t.Fatalf("err = %v; want ErrBadInput for zero hours", err)
	}
	if _, err := s.Grant(ctx, 100, 1, "ponderation", 33, ""); !errors.Is(err, ErrBadInput) {
		t.Fatalf("err = %v; want ErrBadInput for unknown source", err)
	}

	m.insertFn = func(ctx context.Context, a *model.WellnessHourAward) (int64, error) {
		return 0, &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	}
	if _, err := s.Grant(ctx, 100, 1.5, model.AwardSourceEvent, 33, ""); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v; want ErrDuplicate", err)
	}
}

func TestRevoke(t *testing.T) {
	m := &mockRepo{
		deleteBySourceFn: func(ctx context.Context, st model.AwardSource, id int64) (int64, error) {
			if st == model.AwardSourceEvent && id == 33 {
				return 1, nil
			}
			return 0, nil
		},
	}
	s := New(m)
	ctx := context.Background()

	if err := s.Revoke(ctx, model.AwardSourceEvent, 33); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := s.Revoke(ctx, model.AwardSourceEvent, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}
