package accrual

import (
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		base      float64
		factor    float64
		delivered *time.Time
		returned  time.Time
		want      float64
	}{
		{"base plus hourly bonus", 2, 0.5, &t0, t0.Add(4 * time.Hour), 4.0},
		{"never delivered awards base only", 1, 1.0, nil, t0, 1.0},
		{"zero usage", 2, 0.5, &t0, t0, 2.0},
		{"clock skew clamps to zero usage", 2, 0.5, &t0, t0.Add(-1 * time.Hour), 2.0},
		{"rounds half up", 1, 0.25, &t0, t0.Add(90 * time.Minute), 1.4}, // 1.375 -> 1.4
		{"rounds down below half", 1, 0.1, &t0, t0.Add(84 * time.Minute), 1.1}, // 1.14 -> 1.1
		{"zero base zero factor", 0, 0, &t0, t0.Add(10 * time.Hour), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.base, tc.factor, tc.delivered, tc.returned)
			if got != tc.want {
				t.Fatalf("Compute = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestRound1(t *testing.T) {
	// inputs are binary-exact so the half-up behavior is deterministic
	for _, tc := range []struct{ in, want float64 }{
		{1.25, 1.3},
		{1.75, 1.8},
		{3.375, 3.4},
		{1.14, 1.1},
		{0, 0},
		{4.0, 4.0},
	} {
		if got := round1(tc.in); got != tc.want {
			t.Fatalf("round1(%v) = %v; want %v", tc.in, got, tc.want)
		}
	}
}
