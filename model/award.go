// model/award.go
package model

import "time"

type AwardSource string

const (
	AwardSourceLoan  AwardSource = "loan"
	AwardSourceEvent AwardSource = "event"
)

type WellnessHourAward struct {
	ID          int64       `json:"id"`
	RequesterID int64       `json:"requester_id"`
	Hours       float64     `json:"hours"`
	SourceType  AwardSource `json:"source_type"`
	SourceID    int64       `json:"source_id"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}
