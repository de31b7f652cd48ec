package model

import "testing"

func TestLoanTransitions(t *testing.T) {
	cases := []struct {
		from, to LoanStatus
		ok       bool
	}{
		{LoanPending, LoanApproved, true},
		{LoanPending, LoanRejected, true},
		{LoanPending, LoanActive, false},
		{LoanPending, LoanReturned, false},
		{LoanApproved, LoanActive, true},
		{LoanApproved, LoanExpired, true},
		{LoanApproved, LoanReturned, false},
		{LoanApproved, LoanRejected, false},
		{LoanActive, LoanReturned, true},
		{LoanActive, LoanOverdue, true},
		{LoanActive, LoanLost, true},
		{LoanActive, LoanDamaged, true},
		{LoanActive, LoanApproved, false},
		{LoanOverdue, LoanReturned, true},
		{LoanOverdue, LoanLost, true},
		{LoanOverdue, LoanDamaged, true},
		{LoanOverdue, LoanActive, false},
		// terminal states go nowhere
		{LoanRejected, LoanApproved, false},
		{LoanReturned, LoanActive, false},
		{LoanLost, LoanReturned, false},
		{LoanDamaged, LoanReturned, false},
		{LoanExpired, LoanActive, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v; want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestLoanTerminal(t *testing.T) {
	terminal := map[LoanStatus]bool{
		LoanRejected: true, LoanReturned: true, LoanLost: true,
		LoanDamaged: true, LoanExpired: true,
	}
	all := []LoanStatus{
		LoanPending, LoanApproved, LoanRejected, LoanActive,
		LoanReturned, LoanOverdue, LoanLost, LoanDamaged, LoanExpired,
	}
	for _, s := range all {
		if got := s.Terminal(); got != terminal[s] {
			t.Errorf("%s.Terminal() = %v; want %v", s, got, terminal[s])
		}
		if terminal[s] && len(loanTransitions[s]) != 0 {
			t.Errorf("%s is terminal but has outgoing transitions", s)
		}
	}
}

func TestQueueTransitions(t *testing.T) {
	cases := []struct {
		from, to QueueStatus
		ok       bool
	}{
		{QueueWaiting, QueueNotified, true},
		{QueueWaiting, QueueEnrolled, false}, // nothing skips notified
		{QueueWaiting, QueueExpired, false},
		{QueueNotified, QueueEnrolled, true},
		{QueueNotified, QueueExpired, true},
		{QueueNotified, QueueWaiting, false},
		{QueueEnrolled, QueueExpired, false},
		{QueueExpired, QueueNotified, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v; want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestResourceStatusFlags(t *testing.T) {
	for _, s := range []ResourceStatus{ResourceAvailable, ResourceMaintenance, ResourceRetired} {
		if !s.AdminSettable() {
			t.Errorf("%s should be admin-settable", s)
		}
	}
	for _, s := range []ResourceStatus{ResourceBorrowed, ResourceReserved} {
		if s.AdminSettable() {
			t.Errorf("%s is lifecycle-owned, not admin-settable", s)
		}
	}
	for _, s := range []ResourceStatus{
		ResourceAvailable, ResourceBorrowed, ResourceReserved, ResourceMaintenance, ResourceRetired,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if ResourceStatus("archived").Valid() {
		t.Error("unknown status must not be valid")
	}
}
