package availability

import (
	"fmt"

	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

// Interval is a half-open day range [Start, End). The return day End is free
// for the next renter; a one-day rental has End = Start + 1.
type Interval struct {
	Start types.Date
	End   types.Date
}

// NewInterval validates and builds a rental interval. End must fall strictly
// after Start.
func NewInterval(start, end types.Date) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("interval requires both start and end dates")
	}
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("interval end %s must be after start %s", end, start)
	}
	return Interval{Start: start, End: end}, nil
}

// Days returns the number of billable days covered by the interval.
func (iv Interval) Days() int {
	return iv.Start.DaysUntil(iv.End)
}

// Overlaps reports whether two half-open intervals share at least one day.
// Touching endpoints (a.End == b.Start) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether day falls inside the interval.
func (iv Interval) Contains(day types.Date) bool {
	return !day.Before(iv.Start) && day.Before(iv.End)
}

// WithBuffer extends the interval end by the given number of cleaning days.
func (iv Interval) WithBuffer(days int) Interval {
	if days <= 0 {
		return iv
	}
	return Interval{Start: iv.Start, End: iv.End.AddDays(days)}
}

// ExclusionOf returns the exclusion interval a ledger entry blocks:
// the rental itself plus the cleaning buffer snapshotted at booking time.
func ExclusionOf(r models.Reservation) Interval {
	return Interval{Start: r.StartDate, End: r.EndDate.AddDays(r.BufferDays)}
}

// Blocked reports whether any of the active ledger entries exclude the
// requested interval. Both sides carry their cleaning buffer so back-to-back
// bookings leave room to clean in either order.
func Blocked(request Interval, entries []models.Reservation) bool {
	for _, entry := range entries {
		if ExclusionOf(entry).Overlaps(request) {
			return true
		}
	}
	return false
}
