package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/PlusPioneers/BookingApplication/internal/schedule"
)

func createBookingHandler(svc *schedule.Service, channel schedule.BookingChannel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		practitionerID, err := uuid.Parse(req.PractitionerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return
		}

		if channel == schedule.BookedByCustomer && isPastDate(req.Date) {
			writeError(w, http.StatusBadRequest, "validation_error", "date must not be in the past")
			return
		}

		b, err := svc.CreateBooking(r.Context(), schedule.CreateBookingInput{
			PatientName:    req.PatientName,
			PatientPhone:   req.PatientPhone,
			PatientEmail:   req.PatientEmail,
			PractitionerID: practitionerID,
			Date:           req.Date,
			Time:           req.Time,
			Reason:         req.Reason,
			Channel:        channel,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(*b))
	}
}

func listBookingsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f schedule.BookingFilter

		if v := r.URL.Query().Get("practitioner_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
				return
			}
			f.PractitionerID = &id
		}
		if v := r.URL.Query().Get("date"); v != "" {
			f.Date = &v
		}
		if v := r.URL.Query().Get("status"); v != "" {
			status := schedule.BookingStatus(v)
			f.Status = &status
		}

		bs, err := svc.ListBookings(r.Context(), f)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]BookingResponse, 0, len(bs))
		for _, b := range bs {
			resp = append(resp, toBookingResponse(b))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getBookingHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		b, err := svc.GetBooking(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(*b))
	}
}

func updateBookingHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req UpdateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := schedule.UpdateBookingInput{
			PatientName:  req.PatientName,
			PatientPhone: req.PatientPhone,
			PatientEmail: req.PatientEmail,
			Reason:       req.Reason,
			FollowUpDate: req.FollowUpDate,
		}
		if req.BookingStatus != nil {
			status := schedule.BookingStatus(*req.BookingStatus)
			in.BookingStatus = &status
		}
		if req.FollowUpStatus != nil {
			status := schedule.FollowUpStatus(*req.FollowUpStatus)
			in.FollowUpStatus = &status
		}

		b, err := svc.UpdateBooking(r.Context(), id, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(*b))
	}
}

func rescheduleBookingHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req RescheduleBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		b, err := svc.RescheduleBooking(r.Context(), id, schedule.RescheduleInput{
			Date: req.Date,
			Time: req.Time,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(*b))
	}
}

func deleteBookingHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteBooking(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
