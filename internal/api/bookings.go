package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sharehub/internal/metrics"
	"sharehub/internal/models"
	"sharehub/internal/service"
)

type bookingRequest struct {
	ItemID int64  `json:"itemId"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// parseDateTime accepts RFC 3339 and the zone-less local variant clients
// commonly send.
func parseDateTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time: %s", raw)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	bookerID, err := userID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var body bookingRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	start, err := parseDateTime(body.Start)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateTime(body.End)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.bookings.CreateBooking(r.Context(), bookerID, body.ItemID, start, end)
	if err != nil {
		if service.KindOf(err) == service.KindBadRequest {
			metrics.IncBookingOutcome("rejected_invalid")
		}
		writeServiceError(w, r, err)
		return
	}

	metrics.IncBookingOutcome("created")
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleApproveBooking(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid booking id")
		return
	}

	approvedRaw := r.URL.Query().Get("approved")
	if approvedRaw != "true" && approvedRaw != "false" {
		writeError(w, r, http.StatusBadRequest, "approved must be true or false")
		return
	}
	approve := approvedRaw == "true"

	view, err := s.bookings.ApproveBooking(r.Context(), ownerID, bookingID, approve)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if approve {
		metrics.IncBookingOutcome("approved")
	} else {
		metrics.IncBookingOutcome("rejected")
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	actingID, err := userID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid booking id")
		return
	}

	view, err := s.bookings.GetBooking(r.Context(), actingID, bookingID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetUserBookings(w http.ResponseWriter, r *http.Request) {
	s.handleListBookings(w, r, s.bookings.GetUserBookings)
}

func (s *Server) handleGetOwnerBookings(w http.ResponseWriter, r *http.Request) {
	s.handleListBookings(w, r, s.bookings.GetOwnerBookings)
}

type bookingLister func(ctx context.Context, userID int64, state string, from, size int) ([]*models.BookingView, error)

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request, list bookingLister) {
	subjectID, err := userID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	from, size, err := pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		state = models.StateAll
	}

	views, err := list(r.Context(), subjectID, state, from, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []*models.BookingView{}
	}
	writeJSON(w, http.StatusOK, views)
}
