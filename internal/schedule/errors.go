package schedule

import "errors"

var (
	ErrPractitionerNotFound  = errors.New("practitioner not found")
	ErrPractitionerInactive  = errors.New("practitioner is not accepting bookings")
	ErrTemplateEntryNotFound = errors.New("template entry not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrSlotTaken             = errors.New("slot is not available")
	ErrSlotBeingBooked       = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
)

// ValidationError marks input the caller must correct before resubmitting,
// as opposed to conflicts where the caller should pick another slot.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}
