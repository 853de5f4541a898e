package schedule

import (
	"context"

	"github.com/google/uuid"
)

// BookingFilter narrows ListBookings. Nil fields match everything.
type BookingFilter struct {
	PractitionerID *uuid.UUID
	Date           *string
	Status         *BookingStatus
}

// Repository contains all storage interactions needed by the service.
// Practitioner reads return the weekly template loaded and ordered.
type Repository interface {
	CreatePractitioner(ctx context.Context, p Practitioner) (*Practitioner, error)
	GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	ListPractitioners(ctx context.Context, activeOnly bool) ([]Practitioner, error)
	UpdatePractitioner(ctx context.Context, p Practitioner) (*Practitioner, error)
	// DeletePractitioner removes the practitioner and its owned template
	// entries. Bookings referencing the id are left in place.
	DeletePractitioner(ctx context.Context, id uuid.UUID) error

	// ReplaceTemplate swaps the practitioner's whole weekly template for the
	// given entries, preserving their order.
	ReplaceTemplate(ctx context.Context, practitionerID uuid.UUID, entries []SlotTemplateEntry) error
	UpdateTemplateEntry(ctx context.Context, e SlotTemplateEntry) error
	DeleteTemplateEntry(ctx context.Context, practitionerID, entryID uuid.UUID) error

	CreateBooking(ctx context.Context, b Booking) (*Booking, error)
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error)
	UpdateBooking(ctx context.Context, b Booking) (*Booking, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error

	InsertEvent(ctx context.Context, ev BookingEvent) error
}
