package schedule

// CanTransition reports whether a booking may move between two lifecycle
// statuses. Completed and cancelled are terminal; missed can still be closed
// out as completed (directly or through a reschedule).
func CanTransition(from, to BookingStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusUpcoming:
		return to == StatusCompleted || to == StatusCancelled || to == StatusMissed
	case StatusMissed:
		return to == StatusCompleted
	default:
		return false
	}
}

// Terminal reports whether no further lifecycle transitions are modeled for
// the status. The follow-up axis stays mutable regardless.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case StatusUpcoming, StatusCompleted, StatusCancelled, StatusMissed:
		return true
	}
	return false
}

func ValidFollowUpStatus(s FollowUpStatus) bool {
	switch s {
	case FollowUpNone, FollowUpRequired, FollowUpScheduled, FollowUpCompleted:
		return true
	}
	return false
}
