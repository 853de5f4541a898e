package schedule

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DateLayout is the wire form for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire form for times of day.
	ClockLayout = "15:04"
)

type BookingStatus string

const (
	StatusUpcoming  BookingStatus = "upcoming"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusMissed    BookingStatus = "missed"
)

type FollowUpStatus string

const (
	FollowUpNone      FollowUpStatus = "none"
	FollowUpRequired  FollowUpStatus = "required"
	FollowUpScheduled FollowUpStatus = "scheduled"
	FollowUpCompleted FollowUpStatus = "completed"
)

// BookingChannel records which entry point created a booking. Immutable provenance.
type BookingChannel string

const (
	BookedByCustomer BookingChannel = "customer"
	BookedByStaff    BookingChannel = "staff"
)

type Practitioner struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	Phone     string
	Email     string
	Active    bool
	// WeeklyTemplate is the recurring pattern of bookable slots, ordered
	// day-then-time by construction.
	WeeklyTemplate []SlotTemplateEntry
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SlotTemplateEntry is one recurring slot in a practitioner's weekly template.
// It has no existence independent of its practitioner.
type SlotTemplateEntry struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	DayOfWeek      int // 0=Sunday .. 6=Saturday
	StartTime      string
	EndTime        string
	Available      bool
	IsBreak        bool
}

// SetAvailable and SetBreak keep the two flags mutually exclusive: a break
// is never bookable, and marking an entry bookable clears its break flag.
func (e *SlotTemplateEntry) SetAvailable(v bool) {
	e.Available = v
	if v {
		e.IsBreak = false
	}
}

func (e *SlotTemplateEntry) SetBreak(v bool) {
	e.IsBreak = v
	if v {
		e.Available = false
	}
}

// ToggleBreak flips the break flag and realigns availability with it.
func (e *SlotTemplateEntry) ToggleBreak() {
	e.IsBreak = !e.IsBreak
	e.Available = !e.IsBreak
}

type Booking struct {
	ID           uuid.UUID
	PatientName  string
	PatientPhone string
	PatientEmail *string

	PractitionerID uuid.UUID
	// PractitionerName is a point-in-time snapshot captured at creation.
	// It is never refreshed when the practitioner is renamed or deleted.
	PractitionerName string

	Date   string // YYYY-MM-DD
	Time   string // HH:MM, the StartTime of a template entry at creation time
	Reason string

	BookingStatus  BookingStatus
	FollowUpStatus FollowUpStatus
	FollowUpDate   *string

	BookedBy BookingChannel

	// RescheduledFrom points at the booking this one replaced. Non-owning:
	// the referenced record no longer exists.
	RescheduledFrom *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingEvent is an append-only audit row.
type BookingEvent struct {
	ID        int64
	EventType string
	BookingID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
