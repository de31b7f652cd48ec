// Package accrual computes the wellness hours awarded when a loan is
// returned: base hours plus an hourly bonus over the usage time.
//
// Event attendance awards are flat (the event's configured hours) and do
// not go through this calculator.
package accrual

import (
	"math"
	"time"
)

// Compute returns base + usedHours*factor, rounded half-up to one
// decimal. A nil deliveredAt (loan closed without pickup) counts as zero
// usage, so the award is the base alone. The result is never negative.
func Compute(baseHours, hourlyFactor float64, deliveredAt *time.Time, returnedAt time.Time) float64 {
	used := 0.0
	if deliveredAt != nil {
		if d := returnedAt.Sub(*deliveredAt); d > 0 {
			used = d.Hours()
		}
	}
	total := baseHours + used*hourlyFactor
	if total < 0 {
		total = 0
	}
	return round1(total)
}

// round1 rounds half-up to one decimal place.
func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
