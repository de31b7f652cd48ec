package awardsvc

import (
	"context"
	"errors"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrBadInput  = errors.New("invalid payload")
	ErrDuplicate = errors.New("award already granted for this source")
	ErrNotFound  = errors.New("no award for this source")
)

type Repo interface {
	Insert(ctx context.Context, a *model.WellnessHourAward) (int64, error)
	DeleteBySource(ctx context.Context, sourceType model.AwardSource, sourceID int64) (int64, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]model.WellnessHourAward, error)
	TotalByRequester(ctx context.Context, requesterID int64) (float64, error)
}

type Service interface {
	// Grant records a flat award, e.g. event attendance. Exactly one
	// award may exist per (source_type, source_id).
	Grant(ctx context.Context, requesterID int64, hours float64, sourceType model.AwardSource, sourceID int64, description string) (int64, error)

	// Revoke deletes the award its trigger created (e.g. attendance was
	// un-marked); exactly the matching award goes, nothing else.
	Revoke(ctx context.Context, sourceType model.AwardSource, sourceID int64) error

	MyAwards(ctx context.Context, requesterID int64) ([]model.WellnessHourAward, error)
	MyTotal(ctx context.Context, requesterID int64) (float64, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Grant(ctx context.Context, requesterID int64, hours float64, sourceType model.AwardSource, sourceID int64, description string) (int64, error) {
	if requesterID <= 0 || hours <= 0 || sourceID <= 0 {
		return 0, ErrBadInput
	}
	if sourceType != model.AwardSourceLoan && sourceType != model.AwardSourceEvent {
		return 0, ErrBadInput
	}
	a := &model.WellnessHourAward{
		RequesterID: requesterID,
		Hours:       hours,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Description: description,
	}
	id, err := s.r.Insert(ctx, a)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (s *service) Revoke(ctx context.Context, sourceType model.AwardSource, sourceID int64) error {
	n, err := s.r.DeleteBySource(ctx, sourceType, sourceID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *service) MyAwards(ctx context.Context, requesterID int64) ([]model.WellnessHourAward, error) {
	return s.r.ListByRequester(ctx, requesterID)
}

func (s *service) MyTotal(ctx context.Context, requesterID int64) (float64, error) {
	return s.r.TotalByRequester(ctx, requesterID)
}
