// model/resource.go
package model

import "time"

type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "available"
	ResourceBorrowed    ResourceStatus = "borrowed"
	ResourceReserved    ResourceStatus = "reserved"
	ResourceMaintenance ResourceStatus = "maintenance"
	ResourceRetired     ResourceStatus = "retired"
)

// adminResourceStatuses are the states an admin may force directly; the
// rest are owned by the loan lifecycle and the queue ledger.
var adminResourceStatuses = map[ResourceStatus]bool{
	ResourceAvailable:   true,
	ResourceMaintenance: true,
	ResourceRetired:     true,
}

func (s ResourceStatus) AdminSettable() bool { return adminResourceStatuses[s] }

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceAvailable, ResourceBorrowed, ResourceReserved, ResourceMaintenance, ResourceRetired:
		return true
	}
	return false
}

type ResourceCategory struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	BaseWellnessHours float64 `json:"base_wellness_hours"`
	HourlyFactor      float64 `json:"hourly_factor"`
	IsLowRisk         bool    `json:"is_low_risk"`
	RequiresApproval  bool    `json:"requires_approval"`
	MaxLoanDays       int     `json:"max_loan_days"`
	MaxPerStudent     int     `json:"max_per_student"`
}

type Resource struct {
	ID         int64          `json:"id"`
	CategoryID int64          `json:"category_id"`
	Name       string         `json:"name"`
	Code       string         `json:"code"`
	Status     ResourceStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}
