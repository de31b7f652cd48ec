package resource

type CreateCategoryReq struct {
	Name              string  `json:"name" validate:"required,max=100"`
	BaseWellnessHours float64 `json:"base_wellness_hours" validate:"gte=0"`
	HourlyFactor      float64 `json:"hourly_factor" validate:"gte=0"`
	IsLowRisk         bool    `json:"is_low_risk"`
	RequiresApproval  bool    `json:"requires_approval"`
	MaxLoanDays       int     `json:"max_loan_days" validate:"required,gt=0"`
	MaxPerStudent     int     `json:"max_per_student" validate:"required,gt=0"`
}

type CreateResourceReq struct {
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,max=150"`
	Code       string `json:"code" validate:"required,max=50"`
}

type SetStatusReq struct {
	Status string `json:"status" validate:"required"`
}
