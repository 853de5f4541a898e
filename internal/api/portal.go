package api

import (
	"time"

	"github.com/PlusPioneers/BookingApplication/internal/schedule"
)

// The customer portal is a thin wrapper around the same engine: it only
// lists active practitioners, refuses past dates up front, and stamps
// bookings with the customer channel. The availability resolver itself never
// filters by date; that policy lives here at the boundary.

// isPastDate reports whether the date falls strictly before today (UTC).
// Malformed dates are left for the engine to reject with a proper
// validation error.
func isPastDate(date string) bool {
	d, err := time.Parse(schedule.DateLayout, date)
	if err != nil {
		return false
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return d.Before(today)
}
