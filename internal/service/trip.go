// Package service contains the business logic for the TripStory API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here: services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/repo"
)

// PhotoFetcher looks up a cover photo for a destination name.
// Implementations never fail: a nil photo means "nothing usable".
type PhotoFetcher interface {
	FetchForDestination(ctx context.Context, name string) *domain.Photo
}

// TripService implements business logic for Trip operations.
type TripService struct {
	store  repo.Store
	photos PhotoFetcher
	logger *slog.Logger
	now    func() time.Time
}

// TripOption customises a TripService.
type TripOption func(*TripService)

// WithClock replaces the wall clock used to decide what "today" is.
func WithClock(now func() time.Time) TripOption {
	return func(s *TripService) { s.now = now }
}

// NewTripService constructs a TripService. photos may be nil, in which case
// trips are never enriched with a cover image.
func NewTripService(store repo.Store, photos PhotoFetcher, logger *slog.Logger, opts ...TripOption) *TripService {
	s := &TripService{store: store, photos: photos, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all trips ordered by start date descending, with destinations.
func (s *TripService) List(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.store.Trips().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	if err := s.attachDestinations(ctx, trips); err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, nil
}

// GetByID returns a single trip with its ordered destinations.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.store.Trips().GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	dests, err := s.store.Destinations().ListByTripID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	trip.Destinations = dests
	return trip, nil
}

// Create validates and persists a new trip together with any inline
// destinations. When at least one destination is supplied the first one's
// name is used to look up a cover photo; a failed lookup is not an error.
//
// Returns domain.ErrValidation for invalid input and domain.ErrDuplicateTitle
// when another trip already uses the title (ignoring case).
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip.Title = strings.TrimSpace(trip.Title)
	trip.StartDate = domain.CalendarDate(trip.StartDate)
	trip.EndDate = domain.CalendarDate(trip.EndDate)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}
	for i := range trip.Destinations {
		trip.Destinations[i].Name = strings.TrimSpace(trip.Destinations[i].Name)
		if err := validateDestination(trip.Destinations[i]); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: destinations[%d]: %w", i, err)
		}
	}

	// The photo lookup is an outbound HTTP call; keep it outside the transaction.
	trip.ImageURL, trip.ImageAttribution = "", ""
	if len(trip.Destinations) > 0 && s.photos != nil {
		if photo := s.photos.FetchForDestination(ctx, trip.Destinations[0].Name); photo != nil {
			trip.ImageURL, trip.ImageAttribution = coverImage(*photo)
		} else {
			s.logger.DebugContext(ctx, "no cover photo for trip", "destination", trip.Destinations[0].Name)
		}
	}

	var created domain.Trip
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		exists, err := tx.Trips().ExistsByTitle(ctx, trip.Title)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateTitle
		}

		created, err = tx.Trips().Create(ctx, trip)
		if err != nil {
			return err
		}

		created.Destinations = make([]domain.Destination, 0, len(trip.Destinations))
		for i, d := range trip.Destinations {
			d.TripID = created.ID
			d.OrderIndex = i
			saved, err := tx.Destinations().Create(ctx, d)
			if err != nil {
				return err
			}
			created.Destinations = append(created.Destinations, saved)
		}
		return nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	s.logger.InfoContext(ctx, "trip created", "trip_id", created.ID, "destinations", len(created.Destinations))
	return created, nil
}

// Update merges the non-nil fields of patch into the stored trip, re-validates
// the result and persists it. The title uniqueness check only runs when the
// title actually changes (ignoring case).
func (s *TripService) Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}

	var updated domain.Trip
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		existing, err := tx.Trips().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		merged := existing.Apply(patch)
		if err := validateTrip(merged); err != nil {
			return err
		}

		if !strings.EqualFold(merged.Title, existing.Title) {
			exists, err := tx.Trips().ExistsByTitle(ctx, merged.Title)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrDuplicateTitle
			}
		}

		updated, err = tx.Trips().Update(ctx, merged)
		if err != nil {
			return err
		}
		updated.Destinations, err = tx.Destinations().ListByTripID(ctx, id)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a trip and its destinations in one transaction.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Trips().GetForUpdate(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Destinations().DeleteByTripID(ctx, id); err != nil {
			return err
		}
		return tx.Trips().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	s.logger.InfoContext(ctx, "trip deleted", "trip_id", id)
	return nil
}

// Search returns trips whose title contains term, ignoring case.
func (s *TripService) Search(ctx context.Context, term string) ([]domain.Trip, error) {
	trips, err := s.store.Trips().Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Search: %w", err)
	}
	if err := s.attachDestinations(ctx, trips); err != nil {
		return nil, fmt.Errorf("service.TripService.Search: %w", err)
	}
	return trips, nil
}

// ListUpcoming returns trips that start after today.
func (s *TripService) ListUpcoming(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.store.Trips().ListUpcoming(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListUpcoming: %w", err)
	}
	if err := s.attachDestinations(ctx, trips); err != nil {
		return nil, fmt.Errorf("service.TripService.ListUpcoming: %w", err)
	}
	return trips, nil
}

// ListPast returns trips that ended before today.
func (s *TripService) ListPast(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.store.Trips().ListPast(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListPast: %w", err)
	}
	if err := s.attachDestinations(ctx, trips); err != nil {
		return nil, fmt.Errorf("service.TripService.ListPast: %w", err)
	}
	return trips, nil
}

// ListOngoing returns trips whose date range includes today.
func (s *TripService) ListOngoing(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.store.Trips().ListOngoing(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListOngoing: %w", err)
	}
	if err := s.attachDestinations(ctx, trips); err != nil {
		return nil, fmt.Errorf("service.TripService.ListOngoing: %w", err)
	}
	return trips, nil
}

// Statistics returns trip counts by status relative to today. The counts use
// the same predicates as the listings and are not forced to sum to Total.
func (s *TripService) Statistics(ctx context.Context) (domain.TripStatistics, error) {
	stats, err := s.store.Trips().Statistics(ctx, s.today())
	if err != nil {
		return domain.TripStatistics{}, fmt.Errorf("service.TripService.Statistics: %w", err)
	}
	return stats, nil
}

func (s *TripService) today() time.Time {
	return domain.CalendarDate(s.now())
}

// attachDestinations loads the destinations of every trip in one query and
// stores them on the trips in place.
func (s *TripService) attachDestinations(ctx context.Context, trips []domain.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(trips))
	for i, t := range trips {
		ids[i] = t.ID
	}
	byTrip, err := s.store.Destinations().ListByTripIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range trips {
		if dests, ok := byTrip[trips[i].ID]; ok {
			trips[i].Destinations = dests
		} else {
			trips[i].Destinations = []domain.Destination{}
		}
	}
	return nil
}

// Field limits shared by the service checks and the database columns.
const (
	maxTitleLen       = 255
	maxNotesLen       = 1000
	maxNameLen        = 255
	maxFullNameLen    = 500
	maxTypeLen        = 50
	maxDescriptionLen = 1000
	maxImageURLLen    = 500
	maxAttributionLen = 255
)

// coverImage picks the stored image fields for a photo. A URL too long for
// its column is dropped along with its credit; a long credit is cut short.
func coverImage(p domain.Photo) (url, attribution string) {
	url = p.URLs.Regular
	if url == "" || len(url) > maxImageURLLen {
		return "", ""
	}
	attribution = p.Attribution()
	if runes := []rune(attribution); len(runes) > maxAttributionLen {
		attribution = string(runes[:maxAttributionLen])
	}
	return url, attribution
}

// oneYearLater returns start plus one calendar year, clamped to the last day
// of the month so Feb 29 maps to Feb 28 instead of rolling into March.
func oneYearLater(start time.Time) time.Time {
	lim := start.AddDate(1, 0, 0)
	if lim.Day() != start.Day() {
		lim = lim.AddDate(0, 0, -lim.Day())
	}
	return lim
}

// validateTrip enforces business rules common to both Create and Update.
//   - Title must be non-empty (whitespace-only titles are rejected).
//   - Both dates are required and EndDate must not be before StartDate.
//   - A trip lasts at most one calendar year.
func validateTrip(t domain.Trip) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(t.Title) > maxTitleLen {
		return fmt.Errorf("%w: title must be at most %d characters", domain.ErrValidation, maxTitleLen)
	}
	if utf8.RuneCountInString(t.Notes) > maxNotesLen {
		return fmt.Errorf("%w: notes must be at most %d characters", domain.ErrValidation, maxNotesLen)
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("%w: start date and end date are required", domain.ErrValidation)
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end date must not be before start date", domain.ErrValidation)
	}
	if t.EndDate.After(oneYearLater(t.StartDate)) {
		return fmt.Errorf("%w: trip cannot last longer than one year", domain.ErrValidation)
	}
	return nil
}
