package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/PlusPioneers/BookingApplication/internal/redis"
)

const (
	EventBookingCreated       = "BOOKING_CREATED"
	EventBookingStatusChanged = "BOOKING_STATUS_CHANGED"
	EventBookingRescheduled   = "BOOKING_RESCHEDULED"
	EventBookingDeleted       = "BOOKING_DELETED"
	EventBookingMissed        = "BOOKING_MISSED"
)

// Collections named in change notifications.
const (
	CollectionPractitioners = "practitioners"
	CollectionBookings      = "bookings"
)

// Notifier tells observers that a collection changed so they can recompute
// their derived views from a fresh snapshot.
type Notifier interface {
	NotifyChanged(ctx context.Context, collection string)
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewService wires the booking engine. locker and notifier may be nil: the
// slot lock then degrades to a plain check (single-process deployments and
// tests) and change notifications are dropped.
func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Practitioners

type CreatePractitionerInput struct {
	Name      string
	Specialty string
	Phone     string
	Email     string
}

func (s *Service) CreatePractitioner(ctx context.Context, in CreatePractitionerInput) (*Practitioner, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("name is required")
	}

	p := Practitioner{
		ID:        uuid.New(),
		Name:      name,
		Specialty: strings.TrimSpace(in.Specialty),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		Active:    true,
	}

	created, err := s.repo.CreatePractitioner(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create practitioner: %w", err)
	}

	s.notifyChanged(ctx, CollectionPractitioners)
	return created, nil
}

func (s *Service) GetPractitioner(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return s.repo.GetPractitionerByID(ctx, id)
}

func (s *Service) ListPractitioners(ctx context.Context, activeOnly bool) ([]Practitioner, error) {
	return s.repo.ListPractitioners(ctx, activeOnly)
}

type UpdatePractitionerInput struct {
	Name      *string
	Specialty *string
	Phone     *string
	Email     *string
	Active    *bool
}

func (s *Service) UpdatePractitioner(ctx context.Context, id uuid.UUID, in UpdatePractitionerInput) (*Practitioner, error) {
	p, err := s.repo.GetPractitionerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		p.Name = name
	}
	if in.Specialty != nil {
		p.Specialty = strings.TrimSpace(*in.Specialty)
	}
	if in.Phone != nil {
		p.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		p.Email = strings.TrimSpace(*in.Email)
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	updated, err := s.repo.UpdatePractitioner(ctx, *p)
	if err != nil {
		return nil, fmt.Errorf("update practitioner: %w", err)
	}
	updated.WeeklyTemplate = p.WeeklyTemplate

	s.notifyChanged(ctx, CollectionPractitioners)
	return updated, nil
}

// DeletePractitioner hard-deletes the practitioner and its weekly template.
// Bookings referencing the id are intentionally left dangling: their
// practitioner_name snapshot keeps the history displayable.
func (s *Service) DeletePractitioner(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePractitioner(ctx, id); err != nil {
		return err
	}
	s.notifyChanged(ctx, CollectionPractitioners)
	return nil
}

// Weekly templates

// ReplaceTemplate swaps the whole weekly template (bulk edit).
func (s *Service) ReplaceTemplate(ctx context.Context, practitionerID uuid.UUID, entries []SlotTemplateEntry) (*Practitioner, error) {
	if _, err := s.repo.GetPractitionerByID(ctx, practitionerID); err != nil {
		return nil, err
	}

	for i := range entries {
		e := &entries[i]
		if err := validateTemplateEntry(*e); err != nil {
			return nil, err
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.PractitionerID = practitionerID
	}

	if err := s.repo.ReplaceTemplate(ctx, practitionerID, entries); err != nil {
		return nil, fmt.Errorf("replace template: %w", err)
	}

	s.notifyChanged(ctx, CollectionPractitioners)
	return s.repo.GetPractitionerByID(ctx, practitionerID)
}

type TemplateRangeInput struct {
	DayOfWeek       int
	StartTime       string
	EndTime         string
	DurationMinutes int
}

// AddTemplateRange generates fixed-duration slots over the range and merges
// them into the practitioner's template, replacing overlapping entries on the
// same weekday. Idempotent for identical input.
func (s *Service) AddTemplateRange(ctx context.Context, practitionerID uuid.UUID, in TemplateRangeInput) (*Practitioner, error) {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return nil, validationError("day_of_week must be between 0 and 6")
	}
	start, err := parseClock(in.StartTime)
	if err != nil {
		return nil, validationError("start_time must be in HH:MM form")
	}
	end, err := parseClock(in.EndTime)
	if err != nil {
		return nil, validationError("end_time must be in HH:MM form")
	}
	if start >= end {
		return nil, validationError("start_time must be before end_time")
	}

	p, err := s.repo.GetPractitionerByID(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	generated := GenerateTemplateRange(practitionerID, in.DayOfWeek, in.StartTime, in.EndTime, in.DurationMinutes)
	merged := MergeTemplateRange(p.WeeklyTemplate, generated, in.DayOfWeek, in.StartTime, in.EndTime)

	if err := s.repo.ReplaceTemplate(ctx, practitionerID, merged); err != nil {
		return nil, fmt.Errorf("replace template: %w", err)
	}

	s.notifyChanged(ctx, CollectionPractitioners)
	return s.repo.GetPractitionerByID(ctx, practitionerID)
}

type UpdateTemplateEntryInput struct {
	StartTime *string
	EndTime   *string
	Available *bool
	IsBreak   *bool
}

func (s *Service) UpdateTemplateEntry(ctx context.Context, practitionerID, entryID uuid.UUID, in UpdateTemplateEntryInput) (*SlotTemplateEntry, error) {
	p, err := s.repo.GetPractitionerByID(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	var entry *SlotTemplateEntry
	for i := range p.WeeklyTemplate {
		if p.WeeklyTemplate[i].ID == entryID {
			entry = &p.WeeklyTemplate[i]
			break
		}
	}
	if entry == nil {
		return nil, ErrTemplateEntryNotFound
	}

	if in.StartTime != nil {
		entry.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		entry.EndTime = *in.EndTime
	}
	// Break wins over availability when both flags arrive in one request.
	if in.Available != nil {
		entry.SetAvailable(*in.Available)
	}
	if in.IsBreak != nil {
		entry.SetBreak(*in.IsBreak)
	}

	if err := validateTemplateEntry(*entry); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTemplateEntry(ctx, *entry); err != nil {
		return nil, fmt.Errorf("update template entry: %w", err)
	}

	s.notifyChanged(ctx, CollectionPractitioners)
	return entry, nil
}

func (s *Service) DeleteTemplateEntry(ctx context.Context, practitionerID, entryID uuid.UUID) error {
	if err := s.repo.DeleteTemplateEntry(ctx, practitionerID, entryID); err != nil {
		return err
	}
	s.notifyChanged(ctx, CollectionPractitioners)
	return nil
}

func validateTemplateEntry(e SlotTemplateEntry) error {
	if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
		return validationError("day_of_week must be between 0 and 6")
	}
	start, err := parseClock(e.StartTime)
	if err != nil {
		return validationError("start_time must be in HH:MM form")
	}
	end, err := parseClock(e.EndTime)
	if err != nil {
		return validationError("end_time must be in HH:MM form")
	}
	if start >= end {
		return validationError("start_time must be before end_time")
	}
	if e.Available && e.IsBreak {
		return validationError("an entry cannot be both available and a break")
	}
	return nil
}

// Availability

// AvailableSlots resolves the offered slots for a practitioner on a date
// from a fresh snapshot of that day's bookings.
func (s *Service) AvailableSlots(ctx context.Context, practitionerID uuid.UUID, date string) ([]SlotTemplateEntry, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, validationError("date must be in YYYY-MM-DD form")
	}

	p, err := s.repo.GetPractitionerByID(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.dayBookings(ctx, practitionerID, date)
	if err != nil {
		return nil, err
	}

	return ResolveSlots(*p, date, bookings)
}

func (s *Service) dayBookings(ctx context.Context, practitionerID uuid.UUID, date string) ([]Booking, error) {
	bookings, err := s.repo.ListBookings(ctx, BookingFilter{
		PractitionerID: &practitionerID,
		Date:           &date,
	})
	if err != nil {
		return nil, fmt.Errorf("list day bookings: %w", err)
	}
	return bookings, nil
}

// Bookings

type CreateBookingInput struct {
	PatientName    string
	PatientPhone   string
	PatientEmail   *string
	PractitionerID uuid.UUID
	Date           string
	Time           string
	Reason         string
	Channel        BookingChannel
}

// CreateBooking reserves a slot. The availability check and the insert run
// inside a per-slot distributed lock, and a partial unique index backs the
// same invariant in the database, so two concurrent submissions for one slot
// cannot both succeed.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*Booking, error) {
	if err := validateCreateBooking(in); err != nil {
		return nil, err
	}

	p, err := s.repo.GetPractitionerByID(ctx, in.PractitionerID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrPractitionerInactive
	}

	var created *Booking

	err = s.withSlotLock(ctx, in.PractitionerID, in.Date, in.Time, func(lockCtx context.Context) error {
		// Re-check inside the critical section: the slot must still be among
		// the offered ones.
		bookings, err := s.dayBookings(lockCtx, in.PractitionerID, in.Date)
		if err != nil {
			return err
		}
		offered, err := ResolveSlots(*p, in.Date, bookings)
		if err != nil {
			return err
		}
		if !slotOffered(offered, in.Time) {
			return ErrSlotTaken
		}

		now := s.now()
		b := Booking{
			ID:               uuid.New(),
			PatientName:      strings.TrimSpace(in.PatientName),
			PatientPhone:     strings.TrimSpace(in.PatientPhone),
			PatientEmail:     in.PatientEmail,
			PractitionerID:   in.PractitionerID,
			PractitionerName: p.Name,
			Date:             in.Date,
			Time:             in.Time,
			Reason:           strings.TrimSpace(in.Reason),
			BookingStatus:    StatusUpcoming,
			FollowUpStatus:   FollowUpNone,
			BookedBy:         in.Channel,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		created, err = s.repo.CreateBooking(lockCtx, b)
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		s.logEvent(lockCtx, created.ID, EventBookingCreated, map[string]any{
			"practitioner_id": in.PractitionerID.String(),
			"date":            in.Date,
			"time":            in.Time,
			"booked_by":       string(in.Channel),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.notifyChanged(ctx, CollectionBookings)
	return created, nil
}

func validateCreateBooking(in CreateBookingInput) error {
	if strings.TrimSpace(in.PatientName) == "" {
		return validationError("patient_name is required")
	}
	if strings.TrimSpace(in.PatientPhone) == "" {
		return validationError("patient_phone is required")
	}
	if in.PractitionerID == uuid.Nil {
		return validationError("practitioner_id is required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return validationError("reason is required")
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return validationError("date must be in YYYY-MM-DD form")
	}
	if _, err := parseClock(in.Time); err != nil {
		return validationError("time must be in HH:MM form")
	}
	if in.Channel != BookedByCustomer && in.Channel != BookedByStaff {
		return validationError("booked_by must be customer or staff")
	}
	return nil
}

func slotOffered(offered []SlotTemplateEntry, startTime string) bool {
	for _, e := range offered {
		if e.StartTime == startTime {
			return true
		}
	}
	return false
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error) {
	if f.Date != nil {
		if _, err := time.Parse(DateLayout, *f.Date); err != nil {
			return nil, validationError("date must be in YYYY-MM-DD form")
		}
	}
	if f.Status != nil && !ValidBookingStatus(*f.Status) {
		return nil, validationError("unknown booking status")
	}
	return s.repo.ListBookings(ctx, f)
}

type UpdateBookingInput struct {
	PatientName    *string
	PatientPhone   *string
	PatientEmail   *string
	Reason         *string
	BookingStatus  *BookingStatus
	FollowUpStatus *FollowUpStatus
	FollowUpDate   *string
}

// UpdateBooking merges the provided fields into the record. The lifecycle
// status follows the transition table; the follow-up axis is editable
// independently at any time. updatedAt is refreshed on every change.
func (s *Service) UpdateBooking(ctx context.Context, id uuid.UUID, in UpdateBookingInput) (*Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	statusChanged := false
	if in.BookingStatus != nil && *in.BookingStatus != b.BookingStatus {
		if !ValidBookingStatus(*in.BookingStatus) {
			return nil, validationError("unknown booking status")
		}
		if !CanTransition(b.BookingStatus, *in.BookingStatus) {
			return nil, ErrInvalidTransition
		}
		b.BookingStatus = *in.BookingStatus
		statusChanged = true
	}

	if in.FollowUpStatus != nil {
		if !ValidFollowUpStatus(*in.FollowUpStatus) {
			return nil, validationError("unknown follow-up status")
		}
		b.FollowUpStatus = *in.FollowUpStatus
	}
	if in.FollowUpDate != nil {
		if *in.FollowUpDate == "" {
			b.FollowUpDate = nil
		} else {
			if _, err := time.Parse(DateLayout, *in.FollowUpDate); err != nil {
				return nil, validationError("follow_up_date must be in YYYY-MM-DD form")
			}
			b.FollowUpDate = in.FollowUpDate
		}
	}

	if in.PatientName != nil {
		name := strings.TrimSpace(*in.PatientName)
		if name == "" {
			return nil, validationError("patient_name must not be empty")
		}
		b.PatientName = name
	}
	if in.PatientPhone != nil {
		phone := strings.TrimSpace(*in.PatientPhone)
		if phone == "" {
			return nil, validationError("patient_phone must not be empty")
		}
		b.PatientPhone = phone
	}
	if in.PatientEmail != nil {
		if *in.PatientEmail == "" {
			b.PatientEmail = nil
		} else {
			b.PatientEmail = in.PatientEmail
		}
	}
	if in.Reason != nil {
		reason := strings.TrimSpace(*in.Reason)
		if reason == "" {
			return nil, validationError("reason must not be empty")
		}
		b.Reason = reason
	}

	b.UpdatedAt = s.now()

	updated, err := s.repo.UpdateBooking(ctx, *b)
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	if statusChanged {
		s.logEvent(ctx, updated.ID, EventBookingStatusChanged, map[string]any{
			"status": string(updated.BookingStatus),
		})
	}

	s.notifyChanged(ctx, CollectionBookings)
	return updated, nil
}

type RescheduleInput struct {
	Date string
	Time string
}

// RescheduleBooking closes out an upcoming or missed booking by deleting it
// and creating a fresh upcoming booking at the new slot, carrying over the
// patient identity and reason. The new record keeps a non-owning
// rescheduledFrom reference to the id it replaced.
func (s *Service) RescheduleBooking(ctx context.Context, id uuid.UUID, in RescheduleInput) (*Booking, error) {
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return nil, validationError("date must be in YYYY-MM-DD form")
	}
	if _, err := parseClock(in.Time); err != nil {
		return nil, validationError("time must be in HH:MM form")
	}

	orig, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if orig.BookingStatus != StatusUpcoming && orig.BookingStatus != StatusMissed {
		return nil, ErrInvalidTransition
	}

	p, err := s.repo.GetPractitionerByID(ctx, orig.PractitionerID)
	if err != nil {
		return nil, err
	}

	var created *Booking

	err = s.withSlotLock(ctx, orig.PractitionerID, in.Date, in.Time, func(lockCtx context.Context) error {
		bookings, err := s.dayBookings(lockCtx, orig.PractitionerID, in.Date)
		if err != nil {
			return err
		}
		offered, err := ResolveSlots(*p, in.Date, bookings)
		if err != nil {
			return err
		}
		if !slotOffered(offered, in.Time) {
			return ErrSlotTaken
		}

		now := s.now()
		origID := orig.ID
		b := Booking{
			ID:               uuid.New(),
			PatientName:      orig.PatientName,
			PatientPhone:     orig.PatientPhone,
			PatientEmail:     orig.PatientEmail,
			PractitionerID:   orig.PractitionerID,
			PractitionerName: p.Name,
			Date:             in.Date,
			Time:             in.Time,
			Reason:           orig.Reason,
			BookingStatus:    StatusUpcoming,
			FollowUpStatus:   orig.FollowUpStatus,
			FollowUpDate:     orig.FollowUpDate,
			BookedBy:         BookedByStaff,
			RescheduledFrom:  &origID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		created, err = s.repo.CreateBooking(lockCtx, b)
		if err != nil {
			return fmt.Errorf("create rescheduled booking: %w", err)
		}

		if err := s.repo.DeleteBooking(lockCtx, orig.ID); err != nil && !errors.Is(err, ErrBookingNotFound) {
			return fmt.Errorf("delete original booking: %w", err)
		}

		s.logEvent(lockCtx, created.ID, EventBookingRescheduled, map[string]any{
			"from_booking_id": orig.ID.String(),
			"from_date":       orig.Date,
			"from_time":       orig.Time,
			"date":            in.Date,
			"time":            in.Time,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.notifyChanged(ctx, CollectionBookings)
	return created, nil
}

func (s *Service) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return err
	}
	bookingID := id
	s.logEvent(ctx, bookingID, EventBookingDeleted, map[string]any{})
	s.notifyChanged(ctx, CollectionBookings)
	return nil
}

// MarkMissedBookings transitions every upcoming booking whose slot lies in
// the past to missed. Called periodically by the missed-worker; staff can
// also mark bookings missed by hand through UpdateBooking.
func (s *Service) MarkMissedBookings(ctx context.Context) (int, error) {
	status := StatusUpcoming
	upcoming, err := s.repo.ListBookings(ctx, BookingFilter{Status: &status})
	if err != nil {
		return 0, fmt.Errorf("list upcoming bookings: %w", err)
	}

	now := s.now()
	marked := 0
	for _, b := range upcoming {
		slotEnd, err := time.Parse(DateLayout+" "+ClockLayout, b.Date+" "+b.Time)
		if err != nil {
			s.log.Warn("booking has unparseable slot",
				zap.String("booking_id", b.ID.String()),
				zap.String("date", b.Date),
				zap.String("time", b.Time))
			continue
		}
		if !slotEnd.Before(now) {
			continue
		}

		b.BookingStatus = StatusMissed
		b.UpdatedAt = now
		if _, err := s.repo.UpdateBooking(ctx, b); err != nil {
			if errors.Is(err, ErrBookingNotFound) {
				continue
			}
			return marked, fmt.Errorf("mark booking missed: %w", err)
		}
		s.logEvent(ctx, b.ID, EventBookingMissed, map[string]any{
			"date": b.Date,
			"time": b.Time,
		})
		marked++
	}

	if marked > 0 {
		s.notifyChanged(ctx, CollectionBookings)
	}
	return marked, nil
}

// internals

func (s *Service) withSlotLock(ctx context.Context, practitionerID uuid.UUID, date, clock string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithSlotLock(ctx, practitionerID, date, clock, fn)
}

func (s *Service) notifyChanged(ctx context.Context, collection string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyChanged(ctx, collection)
}

func (s *Service) logEvent(ctx context.Context, bookingID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	id := bookingID
	ev := BookingEvent{
		EventType: eventType,
		BookingID: &id,
		Payload:   data,
		CreatedAt: s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("insert booking event",
			zap.String("event", eventType),
			zap.String("booking_id", bookingID.String()),
			zap.Error(err))
	}
}
