// Package eligibility decides how a loan request enters the lifecycle.
// It is a pure function: side effects (status mutation, notification)
// belong to the loan service, which is the sole caller.
package eligibility

type Decision string

const (
	AutoApprove     Decision = "AUTO_APPROVE"
	RequireApproval Decision = "REQUIRE_APPROVAL"
	DenyLimit       Decision = "DENY_LIMIT"
)

type Input struct {
	ActiveLoanCount int
	MaxActiveLoans  int

	// category flags
	LowRisk          bool
	RequiresApproval bool

	// secondary per-resource / per-student checks
	HasUnresolvedIssue   bool
	CategoryQuotaReached bool

	// policy knob: autoApproveLowRisk
	AutoApproveEnabled bool
}

// Evaluate applies the admission rules in order. The limit is strict: a
// requester at the cap must return a loan before requesting another. A
// category with RequiresApproval set can never auto-approve, regardless
// of its risk flag.
func Evaluate(in Input) Decision {
	if in.ActiveLoanCount >= in.MaxActiveLoans {
		return DenyLimit
	}
	if in.AutoApproveEnabled &&
		in.LowRisk &&
		!in.RequiresApproval &&
		!in.HasUnresolvedIssue &&
		!in.CategoryQuotaReached {
		return AutoApprove
	}
	return RequireApproval
}
