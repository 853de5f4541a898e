package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.Phone,
		&p.Email,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPractitionerNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanTemplateEntry(row pgx.Row) (*SlotTemplateEntry, error) {
	var e SlotTemplateEntry

	err := row.Scan(
		&e.ID,
		&e.PractitionerID,
		&e.DayOfWeek,
		&e.StartTime,
		&e.EndTime,
		&e.Available,
		&e.IsBreak,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateEntryNotFound
		}
		return nil, err
	}

	return &e, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.PatientName,
		&b.PatientPhone,
		&b.PatientEmail,
		&b.PractitionerID,
		&b.PractitionerName,
		&b.Date,
		&b.Time,
		&b.Reason,
		&b.BookingStatus,
		&b.FollowUpStatus,
		&b.FollowUpDate,
		&b.BookedBy,
		&b.RescheduledFrom,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

const bookingColumns = `id, patient_name, patient_phone, patient_email,
		practitioner_id, practitioner_name, visit_date, visit_time, reason,
		booking_status, follow_up_status, follow_up_date, booked_by,
		rescheduled_from, created_at, updated_at`

// isActiveSlotViolation detects the partial unique index guarding
// (practitioner_id, visit_date, visit_time) for non-cancelled bookings.
func isActiveSlotViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" &&
		pgErr.ConstraintName == "bookings_active_slot_key"
}

// Practitioners

func (r *PgRepository) CreatePractitioner(ctx context.Context, p Practitioner) (*Practitioner, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO practitioners (id, name, specialty, phone, email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, specialty, phone, email, active, created_at, updated_at
	`, p.ID, p.Name, p.Specialty, p.Phone, p.Email, p.Active)
	return scanPractitioner(row)
}

func (r *PgRepository) GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, phone, email, active, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`, id)
	p, err := scanPractitioner(row)
	if err != nil {
		return nil, err
	}

	template, err := r.listTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load weekly template: %w", err)
	}
	p.WeeklyTemplate = template

	return p, nil
}

func (r *PgRepository) ListPractitioners(ctx context.Context, activeOnly bool) ([]Practitioner, error) {
	query := `
		SELECT id, name, specialty, phone, email, active, created_at, updated_at
		FROM practitioners
	`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		template, err := r.listTemplate(ctx, result[i].ID)
		if err != nil {
			return nil, fmt.Errorf("load weekly template: %w", err)
		}
		result[i].WeeklyTemplate = template
	}

	return result, nil
}

func (r *PgRepository) UpdatePractitioner(ctx context.Context, p Practitioner) (*Practitioner, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE practitioners
		SET name = $2,
		    specialty = $3,
		    phone = $4,
		    email = $5,
		    active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, specialty, phone, email, active, created_at, updated_at
	`, p.ID, p.Name, p.Specialty, p.Phone, p.Email, p.Active)
	return scanPractitioner(row)
}

func (r *PgRepository) DeletePractitioner(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM practitioners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPractitionerNotFound
	}
	return nil
}

// Weekly templates

func (r *PgRepository) listTemplate(ctx context.Context, practitionerID uuid.UUID) ([]SlotTemplateEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, practitioner_id, day_of_week, start_time, end_time, available, is_break
		FROM slot_templates
		WHERE practitioner_id = $1
		ORDER BY position
	`, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SlotTemplateEntry
	for rows.Next() {
		e, err := scanTemplateEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *PgRepository) ReplaceTemplate(ctx context.Context, practitionerID uuid.UUID, entries []SlotTemplateEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM slot_templates WHERE practitioner_id = $1`, practitionerID); err != nil {
		return fmt.Errorf("clear template: %w", err)
	}

	for i, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO slot_templates (id, practitioner_id, day_of_week, start_time, end_time, available, is_break, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, e.ID, practitionerID, e.DayOfWeek, e.StartTime, e.EndTime, e.Available, e.IsBreak, i)
		if err != nil {
			return fmt.Errorf("insert template entry: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) UpdateTemplateEntry(ctx context.Context, e SlotTemplateEntry) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE slot_templates
		SET day_of_week = $3,
		    start_time = $4,
		    end_time = $5,
		    available = $6,
		    is_break = $7
		WHERE id = $1 AND practitioner_id = $2
	`, e.ID, e.PractitionerID, e.DayOfWeek, e.StartTime, e.EndTime, e.Available, e.IsBreak)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateEntryNotFound
	}
	return nil
}

func (r *PgRepository) DeleteTemplateEntry(ctx context.Context, practitionerID, entryID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM slot_templates WHERE id = $1 AND practitioner_id = $2
	`, entryID, practitionerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateEntryNotFound
	}
	return nil
}

// Bookings

func (r *PgRepository) CreateBooking(ctx context.Context, b Booking) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, patient_name, patient_phone, patient_email,
			practitioner_id, practitioner_name, visit_date, visit_time, reason,
			booking_status, follow_up_status, follow_up_date, booked_by,
			rescheduled_from, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		RETURNING `+bookingColumns+`
	`, b.ID, b.PatientName, b.PatientPhone, b.PatientEmail,
		b.PractitionerID, b.PractitionerName, b.Date, b.Time, b.Reason,
		b.BookingStatus, b.FollowUpStatus, b.FollowUpDate, b.BookedBy,
		b.RescheduledFrom, b.CreatedAt)

	created, err := scanBooking(row)
	if err != nil {
		if isActiveSlotViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE true`
	args := []any{}

	if f.PractitionerID != nil {
		args = append(args, *f.PractitionerID)
		query += fmt.Sprintf(" AND practitioner_id = $%d", len(args))
	}
	if f.Date != nil {
		args = append(args, *f.Date)
		query += fmt.Sprintf(" AND visit_date = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND booking_status = $%d", len(args))
	}
	query += " ORDER BY visit_date, visit_time, created_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateBooking(ctx context.Context, b Booking) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET patient_name = $2,
		    patient_phone = $3,
		    patient_email = $4,
		    reason = $5,
		    booking_status = $6,
		    follow_up_status = $7,
		    follow_up_date = $8,
		    updated_at = $9
		WHERE id = $1
		RETURNING `+bookingColumns+`
	`, b.ID, b.PatientName, b.PatientPhone, b.PatientEmail, b.Reason,
		b.BookingStatus, b.FollowUpStatus, b.FollowUpDate, b.UpdatedAt)
	return scanBooking(row)
}

func (r *PgRepository) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// Events

func (r *PgRepository) InsertEvent(ctx context.Context, ev BookingEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_events (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, now())
	`, ev.EventType, ev.BookingID, ev.Payload)
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}
	return nil
}
