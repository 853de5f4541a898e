package schedule

import "time"

// ResolveSlots computes the bookable slots for one practitioner on one
// calendar date, given the full booking list. It is a pure function over the
// snapshot it is handed: no I/O, deterministic for identical inputs.
//
// A slot is offered when its template entry falls on the date's weekday, is
// marked available, is not a break, and its start time is not claimed by a
// non-cancelled booking for this practitioner on this date. Cancelled
// bookings release their slot back into the pool. Entries come back in
// template order.
//
// Past dates are resolved like any other; callers that want to refuse them
// do so at their own boundary.
func ResolveSlots(p Practitioner, date string, bookings []Booking) ([]SlotTemplateEntry, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, validationError("date must be in YYYY-MM-DD form")
	}
	dayOfWeek := int(day.Weekday())

	booked := make(map[string]struct{})
	for _, b := range bookings {
		if b.PractitionerID != p.ID || b.Date != date {
			continue
		}
		if b.BookingStatus == StatusCancelled {
			continue
		}
		booked[b.Time] = struct{}{}
	}

	out := make([]SlotTemplateEntry, 0, len(p.WeeklyTemplate))
	for _, e := range p.WeeklyTemplate {
		if e.DayOfWeek != dayOfWeek || !e.Available || e.IsBreak {
			continue
		}
		if _, taken := booked[e.StartTime]; taken {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
