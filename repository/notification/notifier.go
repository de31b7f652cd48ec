// repository/notification/notifier.go
package notification

import (
	"context"
	"time"
)

// Kinds of user-facing notifications the engine emits. Messages reach
// students through the surrounding platform; this layer only hands them
// off (redis list + pubsub, optionally a webhook).
const (
	KindLoanApproved  = "loan_approved"
	KindLoanRejected  = "loan_rejected"
	KindLoanDelivered = "loan_delivered"
	KindSlotAvailable = "slot_available"
	KindAwardGranted  = "award_granted"
	KindLoanOverdue   = "loan_overdue"
)

type Notification struct {
	UserID     int64     `json:"user_id"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	ResourceID int64     `json:"resource_id,omitempty"`
	LoanID     int64     `json:"loan_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier delivers a notification. Delivery is best-effort: callers log
// failures and move on, state changes never hinge on it.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop discards notifications; used in tests.
type Nop struct{}

func (Nop) Notify(ctx context.Context, n Notification) error { return nil }

// Multi fans a notification out to several sinks, returning the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var first error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
