package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/PlusPioneers/BookingApplication/internal/schedule"
)

type CreatePractitionerRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type UpdatePractitionerRequest struct {
	Name      *string `json:"name"`
	Specialty *string `json:"specialty"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Active    *bool   `json:"active"`
}

type PractitionerResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Specialty string         `json:"specialty"`
	Phone     string         `json:"phone"`
	Email     string         `json:"email"`
	Active    bool           `json:"active"`
	Template  []SlotResponse `json:"weekly_template"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Available bool      `json:"available"`
	IsBreak   bool      `json:"is_break"`
}

type TemplateEntryRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available *bool  `json:"available"`
	IsBreak   bool   `json:"is_break"`
}

type TemplateRangeRequest struct {
	DayOfWeek       int    `json:"day_of_week"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type UpdateTemplateEntryRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Available *bool   `json:"available"`
	IsBreak   *bool   `json:"is_break"`
}

type CreateBookingRequest struct {
	PatientName    string  `json:"patient_name"`
	PatientPhone   string  `json:"patient_phone"`
	PatientEmail   *string `json:"patient_email"`
	PractitionerID string  `json:"practitioner_id"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Reason         string  `json:"reason"`
}

type UpdateBookingRequest struct {
	PatientName    *string `json:"patient_name"`
	PatientPhone   *string `json:"patient_phone"`
	PatientEmail   *string `json:"patient_email"`
	Reason         *string `json:"reason"`
	BookingStatus  *string `json:"booking_status"`
	FollowUpStatus *string `json:"follow_up_status"`
	FollowUpDate   *string `json:"follow_up_date"`
}

type RescheduleBookingRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type BookingResponse struct {
	ID               uuid.UUID  `json:"id"`
	PatientName      string     `json:"patient_name"`
	PatientPhone     string     `json:"patient_phone"`
	PatientEmail     *string    `json:"patient_email,omitempty"`
	PractitionerID   uuid.UUID  `json:"practitioner_id"`
	PractitionerName string     `json:"practitioner_name"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	Reason           string     `json:"reason"`
	BookingStatus    string     `json:"booking_status"`
	FollowUpStatus   string     `json:"follow_up_status"`
	FollowUpDate     *string    `json:"follow_up_date,omitempty"`
	BookedBy         string     `json:"booked_by"`
	RescheduledFrom  *uuid.UUID `json:"rescheduled_from,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPractitionerResponse(p schedule.Practitioner) PractitionerResponse {
	slots := make([]SlotResponse, 0, len(p.WeeklyTemplate))
	for _, e := range p.WeeklyTemplate {
		slots = append(slots, toSlotResponse(e))
	}
	return PractitionerResponse{
		ID:        p.ID,
		Name:      p.Name,
		Specialty: p.Specialty,
		Phone:     p.Phone,
		Email:     p.Email,
		Active:    p.Active,
		Template:  slots,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toSlotResponse(e schedule.SlotTemplateEntry) SlotResponse {
	return SlotResponse{
		ID:        e.ID,
		DayOfWeek: e.DayOfWeek,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Available: e.Available,
		IsBreak:   e.IsBreak,
	}
}

func toBookingResponse(b schedule.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		PatientName:      b.PatientName,
		PatientPhone:     b.PatientPhone,
		PatientEmail:     b.PatientEmail,
		PractitionerID:   b.PractitionerID,
		PractitionerName: b.PractitionerName,
		Date:             b.Date,
		Time:             b.Time,
		Reason:           b.Reason,
		BookingStatus:    string(b.BookingStatus),
		FollowUpStatus:   string(b.FollowUpStatus),
		FollowUpDate:     b.FollowUpDate,
		BookedBy:         string(b.BookedBy),
		RescheduledFrom:  b.RescheduledFrom,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}
