package loan

import "time"

type CreateLoanReq struct {
	ResourceID int64 `json:"resource_id" validate:"required,gt=0"`
}

type DeliverReq struct {
	DueDate *time.Time `json:"due_date,omitempty"`
}

type ExtensionReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ExtensionDecisionReq struct {
	Approve bool       `json:"approve"`
	NewDue  *time.Time `json:"new_due,omitempty"`
}

type RateReq struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}
