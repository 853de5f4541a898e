package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	redisclient "github.com/PlusPioneers/BookingApplication/internal/redis"
	"github.com/PlusPioneers/BookingApplication/internal/schedule"
)

type RouterConfig struct {
	Service  *schedule.Service
	Notifier *redisclient.ChangeNotifier
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Log      *zap.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Staff endpoints
	r.Route("/practitioners", func(r chi.Router) {
		r.Post("/", createPractitionerHandler(cfg.Service))
		r.Get("/", listPractitionersHandler(cfg.Service, false))
		r.Get("/{id}", getPractitionerHandler(cfg.Service))
		r.Patch("/{id}", updatePractitionerHandler(cfg.Service))
		r.Delete("/{id}", deletePractitionerHandler(cfg.Service))

		r.Put("/{id}/template", replaceTemplateHandler(cfg.Service))
		r.Post("/{id}/template/ranges", addTemplateRangeHandler(cfg.Service))
		r.Patch("/{id}/template/{entryID}", updateTemplateEntryHandler(cfg.Service))
		r.Delete("/{id}/template/{entryID}", deleteTemplateEntryHandler(cfg.Service))

		r.Get("/{id}/availability", availabilityHandler(cfg.Service, false))
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", createBookingHandler(cfg.Service, schedule.BookedByStaff))
		r.Get("/", listBookingsHandler(cfg.Service))
		r.Get("/{id}", getBookingHandler(cfg.Service))
		r.Patch("/{id}", updateBookingHandler(cfg.Service))
		r.Post("/{id}/reschedule", rescheduleBookingHandler(cfg.Service))
		r.Delete("/{id}", deleteBookingHandler(cfg.Service))
	})

	// Customer portal: active practitioners only, no past dates,
	// bookings tagged with the customer channel.
	r.Route("/portal", func(r chi.Router) {
		r.Get("/practitioners", listPractitionersHandler(cfg.Service, true))
		r.Get("/practitioners/{id}/availability", availabilityHandler(cfg.Service, true))
		r.Post("/bookings", createBookingHandler(cfg.Service, schedule.BookedByCustomer))
	})

	if cfg.Notifier != nil {
		r.Get("/last-modified", lastModifiedHandler(cfg.Notifier))
	}

	return r
}

// lastModifiedHandler exposes the per-collection change timestamps that
// observers poll to decide when to re-load their snapshot.
func lastModifiedHandler(notifier *redisclient.ChangeNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := make(map[string]*time.Time)
		for _, collection := range []string{schedule.CollectionPractitioners, schedule.CollectionBookings} {
			t, err := notifier.LastModified(r.Context(), collection)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
				return
			}
			if t.IsZero() {
				resp[collection] = nil
			} else {
				ts := t
				resp[collection] = &ts
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
