package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ListTrips handles GET /api/trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.List(r.Context())
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	s.writeJSON(w, r, http.StatusOK, tripsToResponse(trips))
}

// GetTrip handles GET /api/trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripId")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, tripNotFound(id))
		return
	}
	s.writeJSON(w, r, http.StatusOK, tripToResponse(trip))
}

// CreateTrip handles POST /api/trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body createTripRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}

	created, err := s.trips.Create(r.Context(), requestToTrip(body))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	s.writeJSON(w, r, http.StatusCreated, tripToResponse(created))
}

// UpdateTrip handles PUT /api/trips/{tripId}. Fields absent from the body
// keep their stored values.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripId")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var body updateTripRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}

	updated, err := s.trips.Update(r.Context(), id, requestToTripPatch(body))
	if err != nil {
		s.respondError(w, r, err, tripNotFound(id))
		return
	}
	s.writeJSON(w, r, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /api/trips/{tripId}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripId")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	if err := s.trips.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err, tripNotFound(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchTrips handles GET /api/trips/search?q=.
func (s *Server) SearchTrips(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := queryParam(r, "q", true, &q); err != nil {
		s.badRequest(w, r, err)
		return
	}
	if strings.TrimSpace(q) == "" {
		s.badRequest(w, r, errors.New("parameter q must not be blank"))
		return
	}

	trips, err := s.trips.Search(r.Context(), strings.TrimSpace(q))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	s.writeJSON(w, r, http.StatusOK, tripsToResponse(trips))
}

// ListUpcomingTrips handles GET /api/trips/upcoming.
func (s *Server) ListUpcomingTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.ListUpcoming(r.Context())
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	s.writeJSON(w, r, http.StatusOK, tripsToResponse(trips))
}

// ListPastTrips handles GET /api/trips/past.
func (s *Server) ListPastTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.ListPast(r.Context())
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	s.writeJSON(w, r, http.StatusOK, tripsToResponse(trips))
}

// ListOngoingTrips handles GET /api/trips/ongoing.
func (s *Server) ListOngoingTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.ListOngoing(r.Context())
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	s.writeJSON(w, r, http.StatusOK, tripsToResponse(trips))
}

// GetTripStatistics handles GET /api/trips/statistics.
func (s *Server) GetTripStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.trips.Statistics(r.Context())
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	s.writeJSON(w, r, http.StatusOK, statisticsToResponse(stats))
}

func tripNotFound(id uuid.UUID) string {
	return "Trip not found with id: " + id.String()
}
