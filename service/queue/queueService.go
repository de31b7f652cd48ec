package queuesvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/config"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/repository/notification"
	queuerepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/queue"
)

// errors used by controllers

type ErrCode string

const (
	ErrAlreadyQueued       ErrCode = "ALREADY_QUEUED"
	ErrNotQueued           ErrCode = "NOT_QUEUED"
	ErrNotFound            ErrCode = "NOT_FOUND"
	ErrResourceUnavailable ErrCode = "RESOURCE_UNAVAILABLE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type EntryRow = queuerepo.EntryRow

type Service interface {
	// Join appends the requester to the resource's waitlist; position
	// assignment is serialized on the resource row.
	Join(ctx context.Context, requesterID, resourceID int64) (*model.QueueEntry, error)

	// Leave removes a waiting entry and closes the position gap.
	Leave(ctx context.Context, requesterID, resourceID int64) error

	// NotifyHead grants the head of the waitlist its claim window.
	// Called when a resource frees up outside the return flow.
	NotifyHead(ctx context.Context, resourceID int64) (*model.QueueEntry, error)

	MyEntries(ctx context.Context, requesterID int64) ([]EntryRow, error)
	ForResource(ctx context.Context, resourceID int64) ([]model.QueueEntry, error)
}

type service struct {
	r   queuerepo.Repo
	n   notification.Notifier
	pol config.Policy
	now func() time.Time
}

func New(r queuerepo.Repo, n notification.Notifier, pol config.Policy) Service {
	return &service{r: r, n: n, pol: pol, now: func() time.Time { return time.Now().UTC() }}
}

func (s *service) emit(ctx context.Context, notes []notification.Notification) {
	for _, n := range notes {
		if err := s.n.Notify(ctx, n); err != nil {
			slog.Warn("notification failed", "kind", n.Kind, "user_id", n.UserID, "err", err)
		}
	}
}

func (s *service) Join(ctx context.Context, requesterID, resourceID int64) (*model.QueueEntry, error) {
	var out *model.QueueEntry
	err := s.r.InTx(ctx, func(r queuerepo.Repo) error {
		status, err := r.LockResource(ctx, resourceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrNotFound)
			}
			return err
		}
		if status == model.ResourceRetired || status == model.ResourceMaintenance {
			return makeErr(ErrResourceUnavailable)
		}
		live, err := r.FindLiveEntry(ctx, resourceID, requesterID)
		if err != nil {
			return err
		}
		if live != nil {
			return makeErr(ErrAlreadyQueued)
		}
		waiting, err := r.CountWaiting(ctx, resourceID)
		if err != nil {
			return err
		}
		e := &model.QueueEntry{
			ResourceID:  resourceID,
			RequesterID: requesterID,
			Position:    waiting + 1,
			Status:      model.QueueWaiting,
			JoinedAt:    s.now(),
		}
		if _, err := r.Insert(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Leave(ctx context.Context, requesterID, resourceID int64) error {
	return s.r.InTx(ctx, func(r queuerepo.Repo) error {
		if _, err := r.LockResource(ctx, resourceID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrNotFound)
			}
			return err
		}
		e, err := r.FindLiveEntry(ctx, resourceID, requesterID)
		if err != nil {
			return err
		}
		if e == nil || e.Status != model.QueueWaiting {
			return makeErr(ErrNotQueued)
		}
		if err := r.Delete(ctx, e.ID); err != nil {
			return err
		}
		// re-sequencing is mandatory and atomic with the removal
		return r.ShiftWaitingAfter(ctx, resourceID, e.Position)
	})
}

func (s *service) NotifyHead(ctx context.Context, resourceID int64) (*model.QueueEntry, error) {
	var out *model.QueueEntry
	var notes []notification.Notification
	err := s.r.InTx(ctx, func(r queuerepo.Repo) error {
		if _, err := r.LockResource(ctx, resourceID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrNotFound)
			}
			return err
		}
		head, err := r.Head(ctx, resourceID)
		if err != nil {
			return err
		}
		if head == nil {
			return makeErr(ErrNotQueued)
		}
		now := s.now()
		expires := now.Add(s.pol.NotifyWindow)
		if err := r.MarkNotified(ctx, head.ID, now, expires); err != nil {
			return err
		}
		if err := r.ShiftWaitingAfter(ctx, resourceID, head.Position); err != nil {
			return err
		}
		head.Status = model.QueueNotified
		head.NotifiedAt = &now
		head.ExpiresAt = &expires
		out = head
		notes = append(notes, notification.Notification{
			UserID:     head.RequesterID,
			Kind:       notification.KindSlotAvailable,
			Message:    "Cupo disponible",
			ResourceID: resourceID,
			ExpiresAt:  expires,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notes)
	return out, nil
}

func (s *service) MyEntries(ctx context.Context, requesterID int64) ([]EntryRow, error) {
	return s.r.ListMine(ctx, requesterID)
}

func (s *service) ForResource(ctx context.Context, resourceID int64) ([]model.QueueEntry, error) {
	return s.r.ListForResource(ctx, resourceID)
}
