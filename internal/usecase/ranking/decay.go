package ranking

import (
	"math"
	"time"
)

const hoursPerDay = 24

// decayedCount sums per-event exponential decay: each event contributes
// base^(age/period), so a fresh event counts 1.0 and an event one period old
// counts base. Events timestamped in the future count as fresh.
func decayedCount(events []time.Time, now time.Time, base, periodDays float64) float64 {
	var sum float64
	for _, t := range events {
		ageDays := now.Sub(t).Hours() / hoursPerDay
		if ageDays < 0 {
			ageDays = 0
		}
		sum += math.Pow(base, ageDays/periodDays)
	}
	return sum
}
