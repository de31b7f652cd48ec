// model/loan.go
package model

import "time"

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
	LoanOverdue  LoanStatus = "overdue"
	LoanLost     LoanStatus = "lost"
	LoanDamaged  LoanStatus = "damaged"
	LoanExpired  LoanStatus = "expired"
)

// loanTransitions is the closed transition table; anything not listed
// here fails with INVALID_TRANSITION at the service layer.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:  {LoanApproved, LoanRejected},
	LoanApproved: {LoanActive, LoanExpired},
	LoanActive:   {LoanReturned, LoanOverdue, LoanLost, LoanDamaged},
	LoanOverdue:  {LoanReturned, LoanLost, LoanDamaged},
}

func (s LoanStatus) CanTransition(to LoanStatus) bool {
	for _, t := range loanTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func (s LoanStatus) Terminal() bool {
	switch s {
	case LoanRejected, LoanReturned, LoanLost, LoanDamaged, LoanExpired:
		return true
	}
	return false
}

// OpenLoanStatuses count against the requester's active-loan limit and
// block admin overrides of the resource status.
var OpenLoanStatuses = []LoanStatus{LoanPending, LoanApproved, LoanActive, LoanOverdue}

type Loan struct {
	ID          int64      `json:"id"`
	RequesterID int64      `json:"requester_id"`
	ResourceID  int64      `json:"resource_id"`
	Status      LoanStatus `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	ExtensionRequested bool    `json:"extension_requested"`
	ExtensionReason    *string `json:"extension_reason,omitempty"`
	ExtensionApproved  *bool   `json:"extension_approved,omitempty"`

	Rating *int `json:"rating,omitempty"`
}
