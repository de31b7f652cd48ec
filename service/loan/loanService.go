package loansvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/config"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	loanrepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/loan"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/repository/notification"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/service/accrual"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/service/eligibility"
)

// errors used by controllers

type ErrCode string

const (
	ErrLoanLimit           ErrCode = "LOAN_LIMIT_EXCEEDED"
	ErrInvalidTransition   ErrCode = "INVALID_TRANSITION"
	ErrResourceUnavailable ErrCode = "RESOURCE_UNAVAILABLE"
	ErrAlreadyQueued       ErrCode = "ALREADY_QUEUED"
	ErrExpired             ErrCode = "EXPIRED"
	ErrNotFound            ErrCode = "NOT_FOUND"
	ErrNotOwner            ErrCode = "NOT_OWNER"
	ErrBadInput            ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts the error code, or "" for uncoded errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

// RequestOutcome is what a loan request produced: either a Loan (pending
// or auto-approved) or a queue entry when the resource was taken.
type RequestOutcome struct {
	Loan       *model.Loan
	QueueEntry *model.QueueEntry
	Decision   eligibility.Decision
}

type ReturnOutcome struct {
	Loan          *model.Loan
	AwardedHours  float64
	NotifiedEntry *model.QueueEntry
}

type HistoryRow = loanrepo.HistoryRow

type Service interface {
	// Request either creates a loan (auto-approved or pending) or, when
	// the resource is taken and queueing is enabled, joins the waitlist.
	Request(ctx context.Context, requesterID, resourceID int64) (*RequestOutcome, error)

	// Admin decisions on pending loans.
	Approve(ctx context.Context, loanID int64) error
	Reject(ctx context.Context, loanID int64) error

	// Deliver hands the resource over: approved -> active, resource borrowed.
	Deliver(ctx context.Context, loanID int64, dueDate *time.Time) (*model.Loan, error)

	// Return closes the loan, frees the resource, awards wellness hours
	// and notifies the queue head, all in one transaction.
	Return(ctx context.Context, actorID int64, admin bool, loanID int64) (*ReturnOutcome, error)

	// Expire closes an approved loan that was never picked up; no award.
	Expire(ctx context.Context, loanID int64) error

	Cancel(ctx context.Context, requesterID, loanID int64) error
	RequestExtension(ctx context.Context, requesterID, loanID int64, reason string) error
	DecideExtension(ctx context.Context, loanID int64, approve bool, newDue *time.Time) error
	MarkLost(ctx context.Context, loanID int64) error
	MarkDamaged(ctx context.Context, loanID int64) error
	Rate(ctx context.Context, requesterID, loanID int64, rating int) error

	// EnrollFromWaitlist converts a notified queue entry into a loan.
	EnrollFromWaitlist(ctx context.Context, requesterID, entryID int64) (*RequestOutcome, error)

	MyLoans(ctx context.Context, requesterID int64) ([]HistoryRow, error)
	PendingLoans(ctx context.Context) ([]HistoryRow, error)
}

// ----- Service implementation -----

type service struct {
	r   loanrepo.Repo
	n   notification.Notifier
	pol config.Policy
	now func() time.Time
}

func New(r loanrepo.Repo, n notification.Notifier, pol config.Policy) Service {
	return &service{r: r, n: n, pol: pol, now: func() time.Time { return time.Now().UTC() }}
}

// emit delivers notifications after the transaction committed;
// best-effort, failures only get logged.
func (s *service) emit(ctx context.Context, notes []notification.Notification) {
	for _, n := range notes {
		if err := s.n.Notify(ctx, n); err != nil {
			slog.Warn("notification failed", "kind", n.Kind, "user_id", n.UserID, "err", err)
		}
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return makeErr(ErrNotFound)
	}
	return err
}

func (s *service) evaluate(ctx context.Context, r loanrepo.Repo, requesterID int64, res *model.Resource, cat *model.ResourceCategory) (eligibility.Decision, error) {
	active, err := r.CountOpenLoans(ctx, requesterID)
	if err != nil {
		return "", err
	}
	inCat, err := r.CountOpenLoansInCategory(ctx, requesterID, cat.ID)
	if err != nil {
		return "", err
	}
	issue, err := r.HasUnresolvedIssue(ctx, requesterID, res.ID)
	if err != nil {
		return "", err
	}
	return eligibility.Evaluate(eligibility.Input{
		ActiveLoanCount:      active,
		MaxActiveLoans:       s.pol.MaxActiveLoans,
		LowRisk:              cat.IsLowRisk,
		RequiresApproval:     cat.RequiresApproval,
		HasUnresolvedIssue:   issue,
		CategoryQuotaReached: inCat >= cat.MaxPerStudent,
		AutoApproveEnabled:   s.pol.AutoApproveLowRisk,
	}), nil
}

func (s *service) Request(ctx context.Context, requesterID, resourceID int64) (*RequestOutcome, error) {
	out := &RequestOutcome{}
	var notes []notification.Notification

	err := s.r.InTx(ctx, func(r loanrepo.Repo) error {
		res, err := r.GetResourceForUpdate(ctx, resourceID)
		if err != nil {
			return mapNotFound(err)
		}
		if res.Status == model.ResourceRetired || res.Status == model.ResourceMaintenance {
			return makeErr(ErrResourceUnavailable)
		}

		if res.Status != model.ResourceAvailable {
			// borrowed or reserved: go to the waitlist instead of a loan
			if !s.pol.EnableQueueSystem {
				return makeErr(ErrResourceUnavailable)
			}
			live, err := r.HasLiveQueueEntry(ctx, resourceID, requesterID)
			if err != nil {
				return err
			}
			if live {
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
			if _, err := r.InsertQueueEntry(ctx, e); err != nil {
				return err
			}
			out.QueueEntry = e
			return nil
		}

		cat, err := r.GetCategory(ctx, res.CategoryID)
		if err != nil {
			return mapNotFound(err)
		}
		dec, err := s.evaluate(ctx, r, requesterID, res, cat)
		if err != nil {
			return err
		}
		out.Decision = dec

		now := s.now()
		switch dec {
		case eligibility.DenyLimit:
			return makeErr(ErrLoanLimit)

		case eligibility.AutoApprove:
			l := &model.Loan{
				RequesterID: requesterID,
				ResourceID:  resourceID,
				Status:      model.LoanApproved,
				RequestedAt: now,
				ApprovedAt:  &now,
			}
			if _, err := r.InsertLoan(ctx, l); err != nil {
				return err
			}
			if err := r.SetResourceStatus(ctx, resourceID, model.ResourceReserved); err != nil {
				return err
			}
			out.Loan = l
			notes = append(notes, notification.Notification{
				UserID:     requesterID,
				Kind:       notification.KindLoanApproved,
				Message:    fmt.Sprintf("Préstamo aprobado: %s", res.Name),
				ResourceID: resourceID,
				LoanID:     l.ID,
			})

		default: // RequireApproval: resource stays available, first approval wins
			l := &model.Loan{
				RequesterID: requesterID,
				ResourceID:  resourceID,
				Status:      model.LoanPending,
				RequestedAt: now,
			}
			if _, err := r.InsertLoan(ctx, l); err != nil {
				return err
			}
			out.Loan = l
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notes)
	return out, nil
}

func (s *service) Approve(ctx context.Context, loanID int64) error {
	var notes []notification.Notification
	err := s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if !l.Status.CanTransition(model.LoanApproved) {
			return makeErr(ErrInvalidTransition)
		}
		// at most one approved-or-active loan per resource; the resource
		// status field is the gate. First approval takes the reservation,
		// later ones fail here.
		res, err := r.GetResourceForUpdate(ctx, l.ResourceID)
		if err != nil {
			return mapNotFound(err)
		}
		if res.Status != model.ResourceAvailable {
			return makeErr(ErrResourceUnavailable)
		}
		if err := r.MarkApproved(ctx, loanID, s.now()); err != nil {
			return err
		}
		if err := r.SetResourceStatus(ctx, l.ResourceID, model.ResourceReserved); err != nil {
			return err
		}
		notes = append(notes, notification.Notification{
			UserID:     l.RequesterID,
			Kind:       notification.KindLoanApproved,
			Message:    fmt.Sprintf("Préstamo aprobado: %s", res.Name),
			ResourceID: l.ResourceID,
			LoanID:     loanID,
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, notes)
	return nil
}

func (s *service) Reject(ctx context.Context, loanID int64) error {
	var notes []notification.Notification
	err := s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if !l.Status.CanTransition(model.LoanRejected) {
			return makeErr(ErrInvalidTransition)
		}
		if err := r.MarkRejected(ctx, loanID, s.now()); err != nil {
			return err
		}
		notes = append(notes, notification.Notification{
			UserID:     l.RequesterID,
			Kind:       notification.KindLoanRejected,
			Message:    "Préstamo rechazado",
			ResourceID: l.ResourceID,
			LoanID:     loanID,
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, notes)
	return nil
}

func (s *service) Deliver(ctx context.Context, loanID int64, dueDate *time.Time) (*model.Loan, error) {
	var out *model.Loan
	var notes []notification.Notification
	err := s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if !l.Status.CanTransition(model.LoanActive) {
			return makeErr(ErrInvalidTransition)
		}
		res, err := r.GetResourceForUpdate(ctx, l.ResourceID)
		if err != nil {
			return mapNotFound(err)
		}
		// borrowed means some other loan holds it; retired/maintenance
		// can't go out the door either
		if res.Status != model.ResourceAvailable && res.Status != model.ResourceReserved {
			return makeErr(ErrResourceUnavailable)
		}
		// a reservation only counts if it is this loan's
		held, err := r.ResourceHeldByOther(ctx, l.ResourceID, loanID)
		if err != nil {
			return err
		}
		if held {
			return makeErr(ErrResourceUnavailable)
		}
		cat, err := r.GetCategory(ctx, res.CategoryID)
		if err != nil {
			return mapNotFound(err)
		}

		now := s.now()
		due := now.AddDate(0, 0, cat.MaxLoanDays)
		if dueDate != nil {
			due = *dueDate
		}
		if err := r.MarkDelivered(ctx, loanID, now, due); err != nil {
			return err
		}
		if err := r.SetResourceStatus(ctx, l.ResourceID, model.ResourceBorrowed); err != nil {
			return err
		}

		l.Status = model.LoanActive
		l.DeliveredAt = &now
		l.DueDate = &due
		out = l
		notes = append(notes, notification.Notification{
			UserID:     l.RequesterID,
			Kind:       notification.KindLoanDelivered,
			Message:    fmt.Sprintf("Recurso entregado: %s", res.Name),
			ResourceID: l.ResourceID,
			LoanID:     loanID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notes)
	return out, nil
}

func (s *service) Return(ctx context.Context, actorID int64, admin bool, loanID int64) (*ReturnOutcome, error) {
	out := &ReturnOutcome{}
	var notes []notification.Notification
	err := s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if !admin && l.RequesterID != actorID {
			return makeErr(ErrNotOwner)
		}
		if !l.Status.CanTransition(model.LoanReturned) {
			return makeErr(ErrInvalidTransition)
		}
		res, err := r.GetResourceForUpdate(ctx, l.ResourceID)
		if err != nil {
			return mapNotFound(err)
		}
		cat, err := r.GetCategory(ctx, res.CategoryID)
		if err != nil {
			return mapNotFound(err)
		}

		now := s.now()
		if err := r.MarkReturned(ctx, loanID, now); err != nil {
			return err
		}
		if err := r.SetResourceStatus(ctx, l.ResourceID, model.ResourceAvailable); err != nil {
			return err
		}

		hours := accrual.Compute(cat.BaseWellnessHours, cat.HourlyFactor, l.DeliveredAt, now)
		if hours > 0 {
			a := &model.WellnessHourAward{
				RequesterID: l.RequesterID,
				Hours:       hours,
				SourceType:  model.AwardSourceLoan,
				SourceID:    loanID,
				Description: fmt.Sprintf("Devolución de %s", res.Name),
				CreatedAt:   now,
			}
			if _, err := r.InsertAward(ctx, a); err != nil {
				return err
			}
			notes = append(notes, notification.Notification{
				UserID:     l.RequesterID,
				Kind:       notification.KindAwardGranted,
				Message:    fmt.Sprintf("Horas de bienestar acreditadas: %.1f", hours),
				ResourceID: l.ResourceID,
				LoanID:     loanID,
			})
		}
		out.AwardedHours = hours

		// advance the waitlist
		head, err := r.QueueHeadForUpdate(ctx, l.ResourceID)
		if err != nil {
			return err
		}
		if head != nil {
			expires := now.Add(s.pol.NotifyWindow)
			if err := r.MarkQueueNotified(ctx, head.ID, now, expires); err != nil {
				return err
			}
			if err := r.ShiftWaitingAfter(ctx, l.ResourceID, head.Position); err != nil {
				return err
			}
			head.Status = model.QueueNotified
			head.NotifiedAt = &now
			head.ExpiresAt = &expires
			out.NotifiedEntry = head
			notes = append(notes, notification.Notification{
				UserID:     head.RequesterID,
				Kind:       notification.KindSlotAvailable,
				Message:    fmt.Sprintf("Cupo disponible: %s", res.Name),
				ResourceID: l.ResourceID,
				ExpiresAt:  expires,
			})
		}

		l.Status = model.LoanReturned
		l.ReturnedAt = &now
		out.Loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notes)
	return out, nil
}

func (s *service) Expire(ctx context.Context, loanID int64) error {
	return s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if !l.Status.CanTransition(model.LoanExpired) {
			return makeErr(ErrInvalidTransition)
		}
		if err := r.MarkClosed(ctx, loanID, model.LoanExpired, s.now()); err != nil {
			return err
		}
		res, err := r.GetResourceForUpdate(ctx, l.ResourceID)
		if err != nil {
			return mapNotFound(err)
		}
		if res.Status == model.ResourceReserved {
			return r.SetResourceStatus(ctx, l.ResourceID, model.ResourceAvailable)
		}
		return nil
	})
}

func (s *service) Cancel(ctx context.Context, requesterID, loanID int64) error {
	return s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if l.RequesterID != requesterID {
			return makeErr(ErrNotOwner)
		}
		if l.Status != model.LoanPending {
			return makeErr(ErrInvalidTransition)
		}
		return r.DeleteLoan(ctx, loanID)
	})
}

func (s *service) RequestExtension(ctx context.Context, requesterID, loanID int64, reason string) error {
	return s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if l.RequesterID != requesterID {
			return makeErr(ErrNotOwner)
		}
		if l.Status != model.LoanActive && l.Status != model.LoanOverdue {
			return makeErr(ErrInvalidTransition)
		}
		return r.SetExtensionRequested(ctx, loanID, reason)
	})
}

func (s *service) DecideExtension(ctx context.Context, loanID int64, approve bool, newDue *time.Time) error {
	if approve && newDue == nil {
		return makeErr(ErrBadInput)
	}
	return s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if l.Status.Terminal() || !l.ExtensionRequested || l.ExtensionApproved != nil {
			return makeErr(ErrInvalidTransition)
		}
		if !approve {
			newDue = nil // keep the original due date on rejection
		}
		return r.SetExtensionDecision(ctx, loanID, approve, newDue)
	})
}

func (s *service) closeAs(ctx context.Context, loanID int64, status model.LoanStatus, resourceStatus model.ResourceStatus) error {
	return s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if !l.Status.CanTransition(status) {
			return makeErr(ErrInvalidTransition)
		}
		if err := r.MarkClosed(ctx, loanID, status, s.now()); err != nil {
			return err
		}
		return r.SetResourceStatus(ctx, l.ResourceID, resourceStatus)
	})
}

func (s *service) MarkLost(ctx context.Context, loanID int64) error {
	return s.closeAs(ctx, loanID, model.LoanLost, model.ResourceRetired)
}

func (s *service) MarkDamaged(ctx context.Context, loanID int64) error {
	return s.closeAs(ctx, loanID, model.LoanDamaged, model.ResourceMaintenance)
}

func (s *service) Rate(ctx context.Context, requesterID, loanID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return makeErr(ErrBadInput)
	}
	return s.r.InTx(ctx, func(r loanrepo.Repo) error {
		l, err := r.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return mapNotFound(err)
		}
		if l.RequesterID != requesterID {
			return makeErr(ErrNotOwner)
		}
		if l.Status != model.LoanReturned {
			return makeErr(ErrInvalidTransition)
		}
		return r.SetRating(ctx, loanID, rating)
	})
}

func (s *service) EnrollFromWaitlist(ctx context.Context, requesterID, entryID int64) (*RequestOutcome, error) {
	out := &RequestOutcome{}
	var notes []notification.Notification
	expired := false

	err := s.r.InTx(ctx, func(r loanrepo.Repo) error {
		e, err := r.GetQueueEntryForUpdate(ctx, entryID)
		if err != nil {
			return mapNotFound(err)
		}
		if e.RequesterID != requesterID {
			return makeErr(ErrNotOwner)
		}
		if !e.Status.CanTransition(model.QueueEnrolled) {
			return makeErr(ErrInvalidTransition)
		}

		now := s.now()
		if e.ExpiresAt != nil && now.After(*e.ExpiresAt) {
			// too late; expire this entry and hand the slot to the next
			// in line. This must commit even though the call fails.
			if err := r.MarkQueueExpired(ctx, entryID); err != nil {
				return err
			}
			head, err := r.QueueHeadForUpdate(ctx, e.ResourceID)
			if err != nil {
				return err
			}
			if head != nil {
				expires := now.Add(s.pol.NotifyWindow)
				if err := r.MarkQueueNotified(ctx, head.ID, now, expires); err != nil {
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
			}
			expired = true
			return nil
		}

		res, err := r.GetResourceForUpdate(ctx, e.ResourceID)
		if err != nil {
			return mapNotFound(err)
		}
		if res.Status != model.ResourceAvailable {
			return makeErr(ErrResourceUnavailable)
		}
		cat, err := r.GetCategory(ctx, res.CategoryID)
		if err != nil {
			return mapNotFound(err)
		}
		dec, err := s.evaluate(ctx, r, requesterID, res, cat)
		if err != nil {
			return err
		}
		out.Decision = dec
		if dec == eligibility.DenyLimit {
			return makeErr(ErrLoanLimit)
		}

		if err := r.MarkQueueEnrolled(ctx, entryID); err != nil {
			return err
		}

		l := &model.Loan{
			RequesterID: requesterID,
			ResourceID:  e.ResourceID,
			RequestedAt: now,
		}
		if dec == eligibility.AutoApprove {
			l.Status = model.LoanApproved
			l.ApprovedAt = &now
		} else {
			l.Status = model.LoanPending
		}
		if _, err := r.InsertLoan(ctx, l); err != nil {
			return err
		}
		if dec == eligibility.AutoApprove {
			if err := r.SetResourceStatus(ctx, e.ResourceID, model.ResourceReserved); err != nil {
				return err
			}
			notes = append(notes, notification.Notification{
				UserID:     requesterID,
				Kind:       notification.KindLoanApproved,
				Message:    fmt.Sprintf("Préstamo aprobado: %s", res.Name),
				ResourceID: e.ResourceID,
				LoanID:     l.ID,
			})
		}
		out.Loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notes)
	if expired {
		return nil, makeErr(ErrExpired)
	}
	return out, nil
}

func (s *service) MyLoans(ctx context.Context, requesterID int64) ([]HistoryRow, error) {
	return s.r.ListMine(ctx, requesterID)
}

func (s *service) PendingLoans(ctx context.Context) ([]HistoryRow, error) {
	return s.r.ListByStatus(ctx, model.LoanPending)
}
