package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Default and maximum number of suggestions returned by destination search.
const (
	defaultSearchLimit = 5
	maxSearchLimit     = 10
)

// ListDestinations handles GET /api/trips/{tripId}/destinations.
func (s *Server) ListDestinations(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	dests, err := s.dests.ListByTrip(r.Context(), tripID)
	if err != nil {
		s.respondError(w, r, err, tripNotFound(tripID))
		return
	}
	s.writeJSON(w, r, http.StatusOK, destinationsToResponse(dests))
}

// AddDestination handles POST /api/trips/{tripId}/destinations. Without an
// orderIndex the destination is appended to the end of the trip.
func (s *Server) AddDestination(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var body createDestinationRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}

	created, err := s.dests.Add(r.Context(), tripID, createDestinationToPatch(body))
	if err != nil {
		s.respondError(w, r, err, tripNotFound(tripID))
		return
	}
	s.writeJSON(w, r, http.StatusCreated, destinationToResponse(created))
}

// AddDestinationsFromSuggestions handles POST /api/trips/{tripId}/destinations/bulk.
// The body is an array of geocoding suggestions, appended in order.
func (s *Server) AddDestinationsFromSuggestions(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var body []suggestionRequest
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}
	for i := range body {
		if err := validate.Struct(body[i]); err != nil {
			s.badRequest(w, r, err)
			return
		}
	}

	created, err := s.dests.AddFromSuggestions(r.Context(), tripID, requestToSuggestions(body))
	if err != nil {
		s.respondError(w, r, err, tripNotFound(tripID))
		return
	}
	s.writeJSON(w, r, http.StatusCreated, destinationsToResponse(created))
}

// ReorderDestinations handles PUT /api/trips/{tripId}/destinations/reorder.
// The body lists every destination id of the trip in the desired order.
func (s *Server) ReorderDestinations(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var ids []uuid.UUID
	if err := decodeJSON(r, &ids); err != nil {
		s.badRequest(w, r, err)
		return
	}

	reordered, err := s.dests.Reorder(r.Context(), tripID, ids)
	if err != nil {
		s.respondError(w, r, err, tripNotFound(tripID))
		return
	}
	s.writeJSON(w, r, http.StatusOK, destinationsToResponse(reordered))
}

// GetDestination handles GET /api/trips/{tripId}/destinations/{destinationId}.
func (s *Server) GetDestination(w http.ResponseWriter, r *http.Request) {
	tripID, id, ok := s.destinationPath(w, r)
	if !ok {
		return
	}
	d, err := s.dests.GetByID(r.Context(), tripID, id)
	if err != nil {
		s.respondError(w, r, err, destinationNotFound(tripID, id))
		return
	}
	s.writeJSON(w, r, http.StatusOK, destinationToResponse(d))
}

// UpdateDestination handles PUT /api/trips/{tripId}/destinations/{destinationId}.
func (s *Server) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	tripID, id, ok := s.destinationPath(w, r)
	if !ok {
		return
	}
	var body updateDestinationRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}

	updated, err := s.dests.Update(r.Context(), tripID, id, updateDestinationToPatch(body))
	if err != nil {
		s.respondError(w, r, err, destinationNotFound(tripID, id))
		return
	}
	s.writeJSON(w, r, http.StatusOK, destinationToResponse(updated))
}

// DeleteDestination handles DELETE /api/trips/{tripId}/destinations/{destinationId}.
func (s *Server) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	tripID, id, ok := s.destinationPath(w, r)
	if !ok {
		return
	}

	if err := s.dests.Delete(r.Context(), tripID, id); err != nil {
		s.respondError(w, r, err, destinationNotFound(tripID, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchDestinations handles GET /api/destinations/search?query=&limit=.
// Provider failures never reach the caller: the geocoder falls back to
// static suggestions.
func (s *Server) SearchDestinations(w http.ResponseWriter, r *http.Request) {
	var query string
	if err := queryParam(r, "query", false, &query); err != nil {
		s.badRequest(w, r, err)
		return
	}
	if strings.TrimSpace(query) == "" {
		s.badRequest(w, r, errors.New("parameter query must not be blank"))
		return
	}
	var limit *int
	if err := queryParam(r, "limit", false, &limit); err != nil {
		s.badRequest(w, r, err)
		return
	}

	n := defaultSearchLimit
	if limit != nil && *limit > 0 {
		n = min(*limit, maxSearchLimit)
	}
	s.writeJSON(w, r, http.StatusOK, suggestionsToResponse(s.geo.Search(r.Context(), query, n)))
}

// destinationPath binds both path ids, writing a 400 on failure.
func (s *Server) destinationPath(w http.ResponseWriter, r *http.Request) (tripID, id uuid.UUID, ok bool) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		s.badRequest(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	id, err = pathUUID(r, "destinationId")
	if err != nil {
		s.badRequest(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return tripID, id, true
}

func destinationNotFound(tripID, id uuid.UUID) string {
	return "Destination " + id.String() + " not found in trip " + tripID.String()
}
