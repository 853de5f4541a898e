package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/PlusPioneers/BookingApplication/internal/schedule"
)

func createPractitionerHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePractitionerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.CreatePractitioner(r.Context(), schedule.CreatePractitionerInput{
			Name:      req.Name,
			Specialty: req.Specialty,
			Phone:     req.Phone,
			Email:     req.Email,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPractitionerResponse(*p))
	}
}

func listPractitionersHandler(svc *schedule.Service, activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		onlyActive := activeOnly || r.URL.Query().Get("active") == "true"

		ps, err := svc.ListPractitioners(r.Context(), onlyActive)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]PractitionerResponse, 0, len(ps))
		for _, p := range ps {
			resp = append(resp, toPractitionerResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getPractitionerHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		p, err := svc.GetPractitioner(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPractitionerResponse(*p))
	}
}

func updatePractitionerHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req UpdatePractitionerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.UpdatePractitioner(r.Context(), id, schedule.UpdatePractitionerInput{
			Name:      req.Name,
			Specialty: req.Specialty,
			Phone:     req.Phone,
			Email:     req.Email,
			Active:    req.Active,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPractitionerResponse(*p))
	}
}

func deletePractitionerHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeletePractitioner(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func replaceTemplateHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req []TemplateEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		entries := make([]schedule.SlotTemplateEntry, 0, len(req))
		for _, e := range req {
			available := true
			if e.Available != nil {
				available = *e.Available
			}
			entry := schedule.SlotTemplateEntry{
				DayOfWeek: e.DayOfWeek,
				StartTime: e.StartTime,
				EndTime:   e.EndTime,
			}
			entry.SetAvailable(available)
			if e.IsBreak {
				entry.SetBreak(true)
			}
			entries = append(entries, entry)
		}

		p, err := svc.ReplaceTemplate(r.Context(), id, entries)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPractitionerResponse(*p))
	}
}

func addTemplateRangeHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req TemplateRangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.AddTemplateRange(r.Context(), id, schedule.TemplateRangeInput{
			DayOfWeek:       req.DayOfWeek,
			StartTime:       req.StartTime,
			EndTime:         req.EndTime,
			DurationMinutes: req.DurationMinutes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPractitionerResponse(*p))
	}
}

func updateTemplateEntryHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		entryID, ok := pathUUID(w, r, "entryID")
		if !ok {
			return
		}

		var req UpdateTemplateEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		e, err := svc.UpdateTemplateEntry(r.Context(), id, entryID, schedule.UpdateTemplateEntryInput{
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Available: req.Available,
			IsBreak:   req.IsBreak,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponse(*e))
	}
}

func deleteTemplateEntryHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		entryID, ok := pathUUID(w, r, "entryID")
		if !ok {
			return
		}

		if err := svc.DeleteTemplateEntry(r.Context(), id, entryID); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func availabilityHandler(svc *schedule.Service, rejectPast bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "date query parameter is required")
			return
		}
		if rejectPast && isPastDate(date) {
			writeError(w, http.StatusBadRequest, "validation_error", "date must not be in the past")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), id, date)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", param+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
