package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PlusPioneers/BookingApplication/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeDomainError maps engine errors onto HTTP codes. Validation failures
// mean "fix your input" (400); conflicts mean "pick another slot" (409);
// not-found is a no-op failure (404).
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *schedule.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation_error", vErr.Error())
	case errors.Is(err, schedule.ErrPractitionerNotFound):
		writeError(w, http.StatusNotFound, "practitioner_not_found", err.Error())
	case errors.Is(err, schedule.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, schedule.ErrTemplateEntryNotFound):
		writeError(w, http.StatusNotFound, "template_entry_not_found", err.Error())
	case errors.Is(err, schedule.ErrPractitionerInactive):
		writeError(w, http.StatusConflict, "practitioner_inactive", err.Error())
	case errors.Is(err, schedule.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, schedule.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, schedule.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
