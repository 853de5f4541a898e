package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PlusPioneers/BookingApplication/internal/db"
	"github.com/PlusPioneers/BookingApplication/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	practitioners, err := seedPractitioners(context.Background(), pool, 12)
	if err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}
	if err := seedBookings(context.Background(), pool, practitioners, 60); err != nil {
		log.Fatalf("seed bookings: %v", err)
	}

	log.Println("seed complete")
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d practitioners", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		phone := gofakeit.Phone()
		email := gofakeit.Email()

		_, err := tx.Exec(ctx, `
			INSERT INTO practitioners (id, name, specialty, phone, email, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, now(), now())
		`, id, name, spec, phone, email)
		if err != nil {
			return nil, err
		}

		// Weekday mornings plus afternoons, 30-minute slots.
		position := 0
		for day := 1; day <= 5; day++ {
			entries := schedule.GenerateTemplateRange(id, day, "09:00", "12:00", schedule.DefaultSlotMinutes)
			entries = append(entries, schedule.GenerateTemplateRange(id, day, "14:00", "17:00", schedule.DefaultSlotMinutes)...)
			for _, e := range entries {
				_, err := tx.Exec(ctx, `
					INSERT INTO slot_templates (id, practitioner_id, day_of_week, start_time, end_time, available, is_break, position)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				`, e.ID, id, e.DayOfWeek, e.StartTime, e.EndTime, e.Available, e.IsBreak, position)
				if err != nil {
					return nil, err
				}
				position++
			}
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("practitioners seeded")
	return ids, nil
}

func seedBookings(ctx context.Context, pool *pgxpool.Pool, practitioners []uuid.UUID, count int) error {
	log.Printf("seeding %d bookings", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for attempt := 0; attempt < count*3 && inserted < count; attempt++ {
		pid := practitioners[gofakeit.Number(0, len(practitioners)-1)]

		// A weekday within the next two weeks.
		date := time.Now().UTC().AddDate(0, 0, gofakeit.Number(1, 14))
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		hour := gofakeit.Number(9, 11)
		if gofakeit.Bool() {
			hour = gofakeit.Number(14, 16)
		}
		minute := 0
		if gofakeit.Bool() {
			minute = 30
		}
		visitTime := fmt.Sprintf("%02d:%02d", hour, minute)

		var name string
		err := tx.QueryRow(ctx, `SELECT name FROM practitioners WHERE id = $1`, pid).Scan(&name)
		if err != nil {
			return err
		}

		bookedBy := schedule.BookedByStaff
		if gofakeit.Bool() {
			bookedBy = schedule.BookedByCustomer
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO bookings (id, patient_name, patient_phone, patient_email,
				practitioner_id, practitioner_name, visit_date, visit_time, reason,
				booking_status, follow_up_status, booked_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'upcoming', 'none', $10, now(), now())
			ON CONFLICT DO NOTHING
		`, uuid.New(), gofakeit.Name(), gofakeit.Phone(), gofakeit.Email(),
			pid, name, date.Format(schedule.DateLayout), visitTime,
			gofakeit.Sentence(6), bookedBy)
		if err != nil {
			return err
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("bookings seeded: %d", inserted)
	return nil
}
