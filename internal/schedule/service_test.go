package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository for exercising the service without
// Postgres. It mirrors the active-slot uniqueness the real schema enforces.
type memRepo struct {
	mu            sync.Mutex
	practitioners map[uuid.UUID]Practitioner
	bookings      map[uuid.UUID]Booking
	bookingOrder  []uuid.UUID
	events        []BookingEvent
}

func newMemRepo() *memRepo {
	return &memRepo{
		practitioners: make(map[uuid.UUID]Practitioner),
		bookings:      make(map[uuid.UUID]Booking),
	}
}

func (m *memRepo) CreatePractitioner(_ context.Context, p Practitioner) (*Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.practitioners[p.ID] = p
	out := p
	return &out, nil
}

func (m *memRepo) GetPractitionerByID(_ context.Context, id uuid.UUID) (*Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.practitioners[id]
	if !ok {
		return nil, ErrPractitionerNotFound
	}
	out := p
	out.WeeklyTemplate = append([]SlotTemplateEntry(nil), p.WeeklyTemplate...)
	return &out, nil
}

func (m *memRepo) ListPractitioners(_ context.Context, activeOnly bool) ([]Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Practitioner
	for _, p := range m.practitioners {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memRepo) UpdatePractitioner(_ context.Context, p Practitioner) (*Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.practitioners[p.ID]
	if !ok {
		return nil, ErrPractitionerNotFound
	}
	p.WeeklyTemplate = existing.WeeklyTemplate
	m.practitioners[p.ID] = p
	out := p
	return &out, nil
}

func (m *memRepo) DeletePractitioner(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.practitioners[id]; !ok {
		return ErrPractitionerNotFound
	}
	delete(m.practitioners, id)
	return nil
}

func (m *memRepo) ReplaceTemplate(_ context.Context, practitionerID uuid.UUID, entries []SlotTemplateEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.practitioners[practitionerID]
	if !ok {
		return ErrPractitionerNotFound
	}
	p.WeeklyTemplate = append([]SlotTemplateEntry(nil), entries...)
	m.practitioners[practitionerID] = p
	return nil
}

func (m *memRepo) UpdateTemplateEntry(_ context.Context, e SlotTemplateEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.practitioners[e.PractitionerID]
	if !ok {
		return ErrPractitionerNotFound
	}
	for i := range p.WeeklyTemplate {
		if p.WeeklyTemplate[i].ID == e.ID {
			p.WeeklyTemplate[i] = e
			m.practitioners[e.PractitionerID] = p
			return nil
		}
	}
	return ErrTemplateEntryNotFound
}

func (m *memRepo) DeleteTemplateEntry(_ context.Context, practitionerID, entryID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.practitioners[practitionerID]
	if !ok {
		return ErrPractitionerNotFound
	}
	for i := range p.WeeklyTemplate {
		if p.WeeklyTemplate[i].ID == entryID {
			p.WeeklyTemplate = append(p.WeeklyTemplate[:i], p.WeeklyTemplate[i+1:]...)
			m.practitioners[practitionerID] = p
			return nil
		}
	}
	return ErrTemplateEntryNotFound
}

func (m *memRepo) CreateBooking(_ context.Context, b Booking) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.bookings {
		if other.PractitionerID == b.PractitionerID &&
			other.Date == b.Date && other.Time == b.Time &&
			other.BookingStatus != StatusCancelled {
			return nil, ErrSlotTaken
		}
	}
	m.bookings[b.ID] = b
	m.bookingOrder = append(m.bookingOrder, b.ID)
	out := b
	return &out, nil
}

func (m *memRepo) GetBookingByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	out := b
	return &out, nil
}

func (m *memRepo) ListBookings(_ context.Context, f BookingFilter) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, id := range m.bookingOrder {
		b, ok := m.bookings[id]
		if !ok {
			continue
		}
		if f.PractitionerID != nil && b.PractitionerID != *f.PractitionerID {
			continue
		}
		if f.Date != nil && b.Date != *f.Date {
			continue
		}
		if f.Status != nil && b.BookingStatus != *f.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memRepo) UpdateBooking(_ context.Context, b Booking) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return nil, ErrBookingNotFound
	}
	m.bookings[b.ID] = b
	out := b
	return &out, nil
}

func (m *memRepo) DeleteBooking(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return ErrBookingNotFound
	}
	delete(m.bookings, id)
	return nil
}

func (m *memRepo) InsertEvent(_ context.Context, ev BookingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memRepo) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, ev := range m.events {
		out = append(out, ev.EventType)
	}
	return out
}

// test fixtures

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	return NewService(repo, nil, nil, nil), repo
}

func seedMondayPractitioner(t *testing.T, svc *Service) *Practitioner {
	t.Helper()
	ctx := context.Background()

	p, err := svc.CreatePractitioner(ctx, CreatePractitionerInput{
		Name:      "Dr. Amara Osei",
		Specialty: "Dermatology",
		Phone:     "555-0100",
	})
	if err != nil {
		t.Fatalf("create practitioner: %v", err)
	}

	p, err = svc.AddTemplateRange(ctx, p.ID, TemplateRangeInput{
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "11:00",
	})
	if err != nil {
		t.Fatalf("add template range: %v", err)
	}
	return p
}

const testMonday = "2026-03-02"

func mondayBookingInput(practitionerID uuid.UUID, clock string) CreateBookingInput {
	return CreateBookingInput{
		PatientName:    "Priya Raman",
		PatientPhone:   "555-0199",
		PractitionerID: practitionerID,
		Date:           testMonday,
		Time:           clock,
		Reason:         "Skin check",
		Channel:        BookedByCustomer,
	}
}

func TestCreatePractitioner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("requires a name", func(t *testing.T) {
		_, err := svc.CreatePractitioner(ctx, CreatePractitionerInput{Name: "  "})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("new practitioners start active", func(t *testing.T) {
		p, err := svc.CreatePractitioner(ctx, CreatePractitionerInput{Name: "Dr. Chen"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !p.Active {
			t.Error("expected new practitioner to be active")
		}
		if p.ID == uuid.Nil {
			t.Error("expected an assigned id")
		}
	})
}

func TestUpdatePractitioner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedMondayPractitioner(t, svc)

	specialty := "Cardiology"
	active := false
	updated, err := svc.UpdatePractitioner(ctx, p.ID, UpdatePractitionerInput{
		Specialty: &specialty,
		Active:    &active,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != p.Name {
		t.Errorf("name changed unexpectedly: %s", updated.Name)
	}
	if updated.Specialty != "Cardiology" || updated.Active {
		t.Errorf("update not applied: specialty=%s active=%v", updated.Specialty, updated.Active)
	}

	_, err = svc.UpdatePractitioner(ctx, uuid.New(), UpdatePractitionerInput{})
	if !errors.Is(err, ErrPractitionerNotFound) {
		t.Fatalf("expected ErrPractitionerNotFound, got %v", err)
	}
}

func TestAddTemplateRange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("persists generated slots", func(t *testing.T) {
		p := seedMondayPractitioner(t, svc)
		if len(p.WeeklyTemplate) != 4 {
			t.Fatalf("expected 4 slots for 09:00-11:00 at 30m, got %d", len(p.WeeklyTemplate))
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		p := seedMondayPractitioner(t, svc)
		bad := []TemplateRangeInput{
			{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"},
			{DayOfWeek: -1, StartTime: "09:00", EndTime: "10:00"},
			{DayOfWeek: 1, StartTime: "morning", EndTime: "10:00"},
			{DayOfWeek: 1, StartTime: "10:00", EndTime: "09:00"},
		}
		for _, in := range bad {
			_, err := svc.AddTemplateRange(ctx, p.ID, in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("input %+v: expected ValidationError, got %v", in, err)
			}
		}
	})
}

func TestReplaceTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedMondayPractitioner(t, svc)

	t.Run("rejects an entry that is both available and a break", func(t *testing.T) {
		_, err := svc.ReplaceTemplate(ctx, p.ID, []SlotTemplateEntry{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:30", Available: true, IsBreak: true},
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("assigns ids and ownership", func(t *testing.T) {
		updated, err := svc.ReplaceTemplate(ctx, p.ID, []SlotTemplateEntry{
			{DayOfWeek: 2, StartTime: "14:00", EndTime: "14:30", Available: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(updated.WeeklyTemplate) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(updated.WeeklyTemplate))
		}
		e := updated.WeeklyTemplate[0]
		if e.ID == uuid.Nil || e.PractitionerID != p.ID {
			t.Errorf("entry not normalized: id=%s practitioner=%s", e.ID, e.PractitionerID)
		}
	})
}

func TestUpdateTemplateEntry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedMondayPractitioner(t, svc)
	entry := p.WeeklyTemplate[0]

	t.Run("break wins when both flags arrive", func(t *testing.T) {
		available := true
		isBreak := true
		updated, err := svc.UpdateTemplateEntry(ctx, p.ID, entry.ID, UpdateTemplateEntryInput{
			Available: &available,
			IsBreak:   &isBreak,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Available || !updated.IsBreak {
			t.Errorf("expected break entry, got available=%v is_break=%v", updated.Available, updated.IsBreak)
		}
	})

	t.Run("unknown entry", func(t *testing.T) {
		_, err := svc.UpdateTemplateEntry(ctx, p.ID, uuid.New(), UpdateTemplateEntryInput{})
		if !errors.Is(err, ErrTemplateEntryNotFound) {
			t.Fatalf("expected ErrTemplateEntryNotFound, got %v", err)
		}
	})
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)

		mutations := []func(*CreateBookingInput){
			func(in *CreateBookingInput) { in.PatientName = "" },
			func(in *CreateBookingInput) { in.PatientPhone = " " },
			func(in *CreateBookingInput) { in.PractitionerID = uuid.Nil },
			func(in *CreateBookingInput) { in.Reason = "" },
			func(in *CreateBookingInput) { in.Date = "03/02/2026" },
			func(in *CreateBookingInput) { in.Time = "9 o'clock" },
			func(in *CreateBookingInput) { in.Channel = "walk-in" },
		}
		for i, mutate := range mutations {
			in := mondayBookingInput(p.ID, "09:00")
			mutate(&in)
			_, err := svc.CreateBooking(ctx, in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("case %d: expected ValidationError, got %v", i, err)
			}
		}
	})

	t.Run("books an offered slot", func(t *testing.T) {
		svc, repo := newTestService(t)
		p := seedMondayPractitioner(t, svc)

		b, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:30"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.BookingStatus != StatusUpcoming {
			t.Errorf("status = %s, want upcoming", b.BookingStatus)
		}
		if b.FollowUpStatus != FollowUpNone {
			t.Errorf("follow-up status = %s, want none", b.FollowUpStatus)
		}
		if b.BookedBy != BookedByCustomer {
			t.Errorf("booked_by = %s, want customer", b.BookedBy)
		}
		if b.PractitionerName != p.Name {
			t.Errorf("practitioner name snapshot = %q, want %q", b.PractitionerName, p.Name)
		}
		if b.CreatedAt.IsZero() || !b.CreatedAt.Equal(b.UpdatedAt) {
			t.Errorf("timestamps not initialized together: created=%v updated=%v", b.CreatedAt, b.UpdatedAt)
		}

		types := repo.eventTypes()
		if len(types) != 1 || types[0] != EventBookingCreated {
			t.Errorf("expected one BOOKING_CREATED event, got %v", types)
		}

		// The booked slot disappears from availability.
		slots, err := svc.AvailableSlots(ctx, p.ID, testMonday)
		if err != nil {
			t.Fatalf("available slots: %v", err)
		}
		for _, s := range slots {
			if s.StartTime == "09:30" {
				t.Error("booked slot still offered")
			}
		}
	})

	t.Run("rejects a slot outside the template", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)

		_, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "12:00"))
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}
	})

	t.Run("rejects a double booking", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)

		if _, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00")); err != nil {
			t.Fatalf("first booking: %v", err)
		}
		_, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}
	})

	t.Run("cancelled slot can be rebooked", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)

		first, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if err != nil {
			t.Fatalf("first booking: %v", err)
		}
		cancelled := StatusCancelled
		if _, err := svc.UpdateBooking(ctx, first.ID, UpdateBookingInput{BookingStatus: &cancelled}); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		if _, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00")); err != nil {
			t.Fatalf("rebooking a cancelled slot: %v", err)
		}
	})

	t.Run("inactive practitioner", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)
		active := false
		if _, err := svc.UpdatePractitioner(ctx, p.ID, UpdatePractitionerInput{Active: &active}); err != nil {
			t.Fatalf("deactivate: %v", err)
		}

		_, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if !errors.Is(err, ErrPractitionerInactive) {
			t.Fatalf("expected ErrPractitionerInactive, got %v", err)
		}
	})

	t.Run("unknown practitioner", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreateBooking(ctx, mondayBookingInput(uuid.New(), "09:00"))
		if !errors.Is(err, ErrPractitionerNotFound) {
			t.Fatalf("expected ErrPractitionerNotFound, got %v", err)
		}
	})
}

func TestUpdateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("lifecycle follows the transition table", func(t *testing.T) {
		svc, repo := newTestService(t)
		p := seedMondayPractitioner(t, svc)
		b, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		completed := StatusCompleted
		updated, err := svc.UpdateBooking(ctx, b.ID, UpdateBookingInput{BookingStatus: &completed})
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if updated.BookingStatus != StatusCompleted {
			t.Errorf("status = %s, want completed", updated.BookingStatus)
		}

		upcoming := StatusUpcoming
		_, err = svc.UpdateBooking(ctx, b.ID, UpdateBookingInput{BookingStatus: &upcoming})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition reopening a completed booking, got %v", err)
		}

		types := repo.eventTypes()
		if types[len(types)-1] != EventBookingStatusChanged {
			t.Errorf("expected a BOOKING_STATUS_CHANGED event, got %v", types)
		}
	})

	t.Run("follow-up axis is editable on a terminal booking", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)
		b, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		completed := StatusCompleted
		if _, err := svc.UpdateBooking(ctx, b.ID, UpdateBookingInput{BookingStatus: &completed}); err != nil {
			t.Fatalf("complete: %v", err)
		}

		required := FollowUpRequired
		followUpDate := "2026-04-06"
		updated, err := svc.UpdateBooking(ctx, b.ID, UpdateBookingInput{
			FollowUpStatus: &required,
			FollowUpDate:   &followUpDate,
		})
		if err != nil {
			t.Fatalf("set follow-up: %v", err)
		}
		if updated.FollowUpStatus != FollowUpRequired || updated.FollowUpDate == nil || *updated.FollowUpDate != followUpDate {
			t.Errorf("follow-up not applied: %+v", updated)
		}

		empty := ""
		updated, err = svc.UpdateBooking(ctx, b.ID, UpdateBookingInput{FollowUpDate: &empty})
		if err != nil {
			t.Fatalf("clear follow-up date: %v", err)
		}
		if updated.FollowUpDate != nil {
			t.Errorf("expected follow-up date cleared, got %v", *updated.FollowUpDate)
		}
	})

	t.Run("refreshes updatedAt", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)
		b, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		later := b.UpdatedAt.Add(time.Hour)
		svc.now = func() time.Time { return later }

		reason := "Mole review"
		updated, err := svc.UpdateBooking(ctx, b.ID, UpdateBookingInput{Reason: &reason})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !updated.UpdatedAt.Equal(later) {
			t.Errorf("updatedAt = %v, want %v", updated.UpdatedAt, later)
		}
		if !updated.CreatedAt.Equal(b.CreatedAt) {
			t.Errorf("createdAt changed: %v vs %v", updated.CreatedAt, b.CreatedAt)
		}
	})
}

func TestRescheduleBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the booking to the new slot", func(t *testing.T) {
		svc, repo := newTestService(t)
		p := seedMondayPractitioner(t, svc)
		orig, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		moved, err := svc.RescheduleBooking(ctx, orig.ID, RescheduleInput{Date: testMonday, Time: "10:00"})
		if err != nil {
			t.Fatalf("reschedule: %v", err)
		}

		if moved.ID == orig.ID {
			t.Error("expected a fresh booking id")
		}
		if moved.Date != testMonday || moved.Time != "10:00" {
			t.Errorf("new slot = %s %s", moved.Date, moved.Time)
		}
		if moved.PatientName != orig.PatientName || moved.PatientPhone != orig.PatientPhone || moved.Reason != orig.Reason {
			t.Errorf("patient identity not carried over: %+v", moved)
		}
		if moved.BookingStatus != StatusUpcoming {
			t.Errorf("status = %s, want upcoming", moved.BookingStatus)
		}
		if moved.BookedBy != BookedByStaff {
			t.Errorf("booked_by = %s, want staff", moved.BookedBy)
		}
		if moved.RescheduledFrom == nil || *moved.RescheduledFrom != orig.ID {
			t.Errorf("rescheduledFrom not set to the original id: %v", moved.RescheduledFrom)
		}

		if _, err := svc.GetBooking(ctx, orig.ID); !errors.Is(err, ErrBookingNotFound) {
			t.Errorf("expected original booking gone, got %v", err)
		}

		// The old slot is offered again, the new one is not.
		slots, err := svc.AvailableSlots(ctx, p.ID, testMonday)
		if err != nil {
			t.Fatalf("available slots: %v", err)
		}
		oldOffered, newOffered := false, false
		for _, s := range slots {
			if s.StartTime == "09:00" {
				oldOffered = true
			}
			if s.StartTime == "10:00" {
				newOffered = true
			}
		}
		if !oldOffered || newOffered {
			t.Errorf("availability after reschedule: old offered=%v new offered=%v", oldOffered, newOffered)
		}

		types := repo.eventTypes()
		if types[len(types)-1] != EventBookingRescheduled {
			t.Errorf("expected a BOOKING_RESCHEDULED event, got %v", types)
		}
	})

	t.Run("target slot must be free", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)
		orig, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		other := mondayBookingInput(p.ID, "10:00")
		other.PatientName = "Jonas Lund"
		if _, err := svc.CreateBooking(ctx, other); err != nil {
			t.Fatalf("create blocker: %v", err)
		}

		_, err = svc.RescheduleBooking(ctx, orig.ID, RescheduleInput{Date: testMonday, Time: "10:00"})
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}

		// The failed attempt must not have dropped the original.
		if _, err := svc.GetBooking(ctx, orig.ID); err != nil {
			t.Errorf("original booking lost after failed reschedule: %v", err)
		}
	})

	t.Run("terminal bookings cannot be rescheduled", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)
		b, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		cancelled := StatusCancelled
		if _, err := svc.UpdateBooking(ctx, b.ID, UpdateBookingInput{BookingStatus: &cancelled}); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		_, err = svc.RescheduleBooking(ctx, b.ID, RescheduleInput{Date: testMonday, Time: "10:00"})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("missed bookings can be rescheduled", func(t *testing.T) {
		svc, _ := newTestService(t)
		p := seedMondayPractitioner(t, svc)
		b, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		missed := StatusMissed
		if _, err := svc.UpdateBooking(ctx, b.ID, UpdateBookingInput{BookingStatus: &missed}); err != nil {
			t.Fatalf("mark missed: %v", err)
		}

		if _, err := svc.RescheduleBooking(ctx, b.ID, RescheduleInput{Date: testMonday, Time: "10:30"}); err != nil {
			t.Fatalf("reschedule missed booking: %v", err)
		}
	})
}

func TestMarkMissedBookings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedMondayPractitioner(t, svc)

	past, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
	if err != nil {
		t.Fatalf("create past booking: %v", err)
	}
	futureIn := mondayBookingInput(p.ID, "10:00")
	futureIn.PatientName = "Jonas Lund"
	future, err := svc.CreateBooking(ctx, futureIn)
	if err != nil {
		t.Fatalf("create future booking: %v", err)
	}

	// Clock sits between the two slots.
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	}

	marked, err := svc.MarkMissedBookings(ctx)
	if err != nil {
		t.Fatalf("mark missed: %v", err)
	}
	if marked != 1 {
		t.Fatalf("marked = %d, want 1", marked)
	}

	got, err := svc.GetBooking(ctx, past.ID)
	if err != nil {
		t.Fatalf("get past booking: %v", err)
	}
	if got.BookingStatus != StatusMissed {
		t.Errorf("past booking status = %s, want missed", got.BookingStatus)
	}

	got, err = svc.GetBooking(ctx, future.ID)
	if err != nil {
		t.Fatalf("get future booking: %v", err)
	}
	if got.BookingStatus != StatusUpcoming {
		t.Errorf("future booking status = %s, want upcoming", got.BookingStatus)
	}

	// A second sweep finds nothing new.
	marked, err = svc.MarkMissedBookings(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if marked != 0 {
		t.Errorf("second sweep marked = %d, want 0", marked)
	}
}

func TestDeletePractitionerKeepsBookings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := seedMondayPractitioner(t, svc)

	b, err := svc.CreateBooking(ctx, mondayBookingInput(p.ID, "09:00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeletePractitioner(ctx, p.ID); err != nil {
		t.Fatalf("delete practitioner: %v", err)
	}

	got, err := svc.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("expected booking to survive, got %v", err)
	}
	if got.PractitionerName != p.Name {
		t.Errorf("practitioner name snapshot lost: %q", got.PractitionerName)
	}
}
