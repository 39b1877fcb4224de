// Package handler implements the HTTP handlers for the TripStory API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, destination.go) but share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tripstory/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	List(ctx context.Context) ([]domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, term string) ([]domain.Trip, error)
	ListUpcoming(ctx context.Context) ([]domain.Trip, error)
	ListPast(ctx context.Context) ([]domain.Trip, error)
	ListOngoing(ctx context.Context) ([]domain.Trip, error)
	Statistics(ctx context.Context) (domain.TripStatistics, error)
}

// DestinationServicer defines the destination operations, all scoped to a trip.
type DestinationServicer interface {
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Destination, error)
	GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Destination, error)
	Add(ctx context.Context, tripID uuid.UUID, p domain.DestinationPatch) (domain.Destination, error)
	Update(ctx context.Context, tripID, id uuid.UUID, p domain.DestinationPatch) (domain.Destination, error)
	Delete(ctx context.Context, tripID, id uuid.UUID) error
	Reorder(ctx context.Context, tripID uuid.UUID, orderedIDs []uuid.UUID) ([]domain.Destination, error)
	AddFromSuggestions(ctx context.Context, tripID uuid.UUID, suggestions []domain.Suggestion) ([]domain.Destination, error)
}

// Geocoder turns free text into place suggestions. It never fails.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) []domain.Suggestion
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies shared by every handler.
type Server struct {
	trips  TripServicer
	dests  DestinationServicer
	geo    Geocoder
	db     Pinger
	logger *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// db may be nil, in which case /healthz does not check the database.
func NewServer(trips TripServicer, dests DestinationServicer, geo Geocoder, db Pinger, logger *slog.Logger) *Server {
	return &Server{trips: trips, dests: dests, geo: geo, db: db, logger: logger}
}

// NewRouter returns a chi router with mws applied and every API route
// mounted. Callers may register further routes (e.g. /metrics) on the result.
//
// Routes under /api require an authenticated principal, except the
// /api/trips/test probe.
func NewRouter(s *Server, mws ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mws...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondMessage(w, r, http.StatusNotFound, "Route not found", r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondMessage(w, r, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path)
	})

	r.Get("/healthz", s.GetHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/trips/test", s.GetTripsTest)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/trips", s.ListTrips)
			r.Post("/trips", s.CreateTrip)
			r.Get("/trips/search", s.SearchTrips)
			r.Get("/trips/upcoming", s.ListUpcomingTrips)
			r.Get("/trips/past", s.ListPastTrips)
			r.Get("/trips/ongoing", s.ListOngoingTrips)
			r.Get("/trips/statistics", s.GetTripStatistics)
			r.Get("/trips/{tripId}", s.GetTrip)
			r.Put("/trips/{tripId}", s.UpdateTrip)
			r.Delete("/trips/{tripId}", s.DeleteTrip)

			r.Get("/trips/{tripId}/destinations", s.ListDestinations)
			r.Post("/trips/{tripId}/destinations", s.AddDestination)
			r.Post("/trips/{tripId}/destinations/bulk", s.AddDestinationsFromSuggestions)
			r.Put("/trips/{tripId}/destinations/reorder", s.ReorderDestinations)
			r.Get("/trips/{tripId}/destinations/{destinationId}", s.GetDestination)
			r.Put("/trips/{tripId}/destinations/{destinationId}", s.UpdateDestination)
			r.Delete("/trips/{tripId}/destinations/{destinationId}", s.DeleteDestination)

			r.Get("/destinations/search", s.SearchDestinations)
		})
	})

	return r
}
