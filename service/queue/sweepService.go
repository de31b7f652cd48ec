package queuesvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/config"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/repository/notification"
	queuerepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/queue"
)

// Sweeper expires notified entries whose claim window lapsed and hands
// the slot to the next waiting requester. Driven by the periodic sweep
// in main; nothing here relies on client polling.
type Sweeper interface {
	ExpireNotified(ctx context.Context) (int64, error)
}

type sweeper struct {
	r   queuerepo.Repo
	n   notification.Notifier
	pol config.Policy
	now func() time.Time
}

func NewSweeper(r queuerepo.Repo, n notification.Notifier, pol config.Policy) Sweeper {
	return &sweeper{r: r, n: n, pol: pol, now: func() time.Time { return time.Now().UTC() }}
}

func (s *sweeper) ExpireNotified(ctx context.Context) (int64, error) {
	now := s.now()
	stale, err := s.r.ListExpiredNotified(ctx, now)
	if err != nil {
		return 0, err
	}

	var expired int64
	var notes []notification.Notification
	for _, cand := range stale {
		err := s.r.InTx(ctx, func(r queuerepo.Repo) error {
			// re-check under lock: the entry may have enrolled meanwhile
			e, err := r.GetForUpdate(ctx, cand.ID)
			if err != nil {
				return err
			}
			if !e.Status.CanTransition(model.QueueExpired) || e.ExpiresAt == nil || !now.After(*e.ExpiresAt) {
				return nil
			}
			if err := r.MarkExpired(ctx, e.ID); err != nil {
				return err
			}
			expired++

			head, err := r.Head(ctx, e.ResourceID)
			if err != nil {
				return err
			}
			if head == nil {
				return nil
			}
			expires := now.Add(s.pol.NotifyWindow)
			if err := r.MarkNotified(ctx, head.ID, now, expires); err != nil {
				return err
			}
			if err := r.ShiftWaitingAfter(ctx, e.ResourceID, head.Position); err != nil {
				return err
			}
			notes = append(notes, notification.Notification{
				UserID:     head.RequesterID,
				Kind:       notification.KindSlotAvailable,
				Message:    "Cupo disponible",
				ResourceID: e.ResourceID,
				ExpiresAt:  expires,
			})
			return nil
		})
		if err != nil {
			return expired, err
		}
	}

	for _, n := range notes {
		if err := s.n.Notify(ctx, n); err != nil {
			slog.Warn("notification failed", "kind", n.Kind, "user_id", n.UserID, "err", err)
		}
	}
	return expired, nil
}
