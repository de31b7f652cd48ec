package award

type GrantReq struct {
	UserID      int64   `json:"user_id" validate:"required,gt=0"`
	Hours       float64 `json:"hours" validate:"required,gt=0"`
	SourceType  string  `json:"source_type" validate:"required,oneof=loan event"`
	SourceID    int64   `json:"source_id" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=300"`
}

type RevokeReq struct {
	SourceType string `json:"source_type" validate:"required,oneof=loan event"`
	SourceID   int64  `json:"source_id" validate:"required,gt=0"`
}
