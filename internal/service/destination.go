package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/repo"
)

// DestinationService implements business logic for Destination operations.
// Every operation is scoped to a parent trip, which must exist.
type DestinationService struct {
	store  repo.Store
	logger *slog.Logger
}

// NewDestinationService constructs a DestinationService backed by store.
func NewDestinationService(store repo.Store, logger *slog.Logger) *DestinationService {
	return &DestinationService{store: store, logger: logger}
}

// ListByTrip returns the trip's destinations ordered by OrderIndex.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *DestinationService) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Destination, error) {
	if _, err := s.store.Trips().GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.DestinationService.ListByTrip: %w", err)
	}
	dests, err := s.store.Destinations().ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.DestinationService.ListByTrip: %w", err)
	}
	return dests, nil
}

// GetByID returns a destination of the given trip.
func (s *DestinationService) GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Destination, error) {
	d, err := s.store.Destinations().GetByID(ctx, tripID, id)
	if err != nil {
		return domain.Destination{}, fmt.Errorf("service.DestinationService.GetByID: %w", err)
	}
	return d, nil
}

// Add creates a destination on a trip. When p.OrderIndex is nil the
// destination is appended after the trip's current last destination.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *DestinationService) Add(ctx context.Context, tripID uuid.UUID, p domain.DestinationPatch) (domain.Destination, error) {
	d := domain.Destination{TripID: tripID}.Apply(p)
	d.Name = strings.TrimSpace(d.Name)
	if err := validateDestination(d); err != nil {
		return domain.Destination{}, err
	}

	var created domain.Destination
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		// Locking the trip row serialises concurrent appends to the same trip.
		if _, err := tx.Trips().GetForUpdate(ctx, tripID); err != nil {
			return err
		}
		if p.OrderIndex == nil {
			maxIdx, err := tx.Destinations().MaxOrderIndex(ctx, tripID)
			if err != nil {
				return err
			}
			d.OrderIndex = maxIdx + 1
		}
		var err error
		created, err = tx.Destinations().Create(ctx, d)
		return err
	})
	if err != nil {
		return domain.Destination{}, fmt.Errorf("service.DestinationService.Add: %w", err)
	}
	return created, nil
}

// Update merges the non-nil fields of p into the stored destination.
// Returns domain.ErrNotFound if the destination does not belong to the trip.
func (s *DestinationService) Update(ctx context.Context, tripID, id uuid.UUID, p domain.DestinationPatch) (domain.Destination, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}

	var updated domain.Destination
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		existing, err := tx.Destinations().GetByID(ctx, tripID, id)
		if err != nil {
			return err
		}
		merged := existing.Apply(p)
		if err := validateDestination(merged); err != nil {
			return err
		}
		updated, err = tx.Destinations().Update(ctx, merged)
		return err
	})
	if err != nil {
		return domain.Destination{}, fmt.Errorf("service.DestinationService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a destination from a trip.
// Returns domain.ErrNotFound if the destination does not belong to the trip.
func (s *DestinationService) Delete(ctx context.Context, tripID, id uuid.UUID) error {
	if err := s.store.Destinations().Delete(ctx, tripID, id); err != nil {
		return fmt.Errorf("service.DestinationService.Delete: %w", err)
	}
	return nil
}

// Reorder sets each destination's OrderIndex to its position in orderedIDs.
// orderedIDs must be a permutation of the trip's current destination ids;
// otherwise domain.ErrReorderMismatch is returned and nothing is written.
func (s *DestinationService) Reorder(ctx context.Context, tripID uuid.UUID, orderedIDs []uuid.UUID) ([]domain.Destination, error) {
	var reordered []domain.Destination
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Trips().GetForUpdate(ctx, tripID); err != nil {
			return err
		}
		current, err := tx.Destinations().ListByTripID(ctx, tripID)
		if err != nil {
			return err
		}
		if err := checkPermutation(current, orderedIDs); err != nil {
			return err
		}

		for i, id := range orderedIDs {
			if err := tx.Destinations().UpdateOrderIndex(ctx, tripID, id, i); err != nil {
				return err
			}
		}
		reordered, err = tx.Destinations().ListByTripID(ctx, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.DestinationService.Reorder: %w", err)
	}
	s.logger.DebugContext(ctx, "destinations reordered", "trip_id", tripID, "count", len(orderedIDs))
	return reordered, nil
}

// AddFromSuggestions turns geocoding suggestions into destinations appended
// to the trip with contiguous order indexes, all in one transaction.
func (s *DestinationService) AddFromSuggestions(ctx context.Context, tripID uuid.UUID, suggestions []domain.Suggestion) ([]domain.Destination, error) {
	pending := make([]domain.Destination, len(suggestions))
	for i, sg := range suggestions {
		d := sg.ToDestination(tripID)
		d.Name = strings.TrimSpace(d.Name)
		if err := validateDestination(d); err != nil {
			return nil, fmt.Errorf("suggestions[%d]: %w", i, err)
		}
		pending[i] = d
	}

	created := make([]domain.Destination, 0, len(pending))
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Trips().GetForUpdate(ctx, tripID); err != nil {
			return err
		}
		maxIdx, err := tx.Destinations().MaxOrderIndex(ctx, tripID)
		if err != nil {
			return err
		}
		for i, d := range pending {
			d.OrderIndex = maxIdx + 1 + i
			saved, err := tx.Destinations().Create(ctx, d)
			if err != nil {
				return err
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.DestinationService.AddFromSuggestions: %w", err)
	}
	return created, nil
}

// checkPermutation reports domain.ErrReorderMismatch unless ids contains
// every current destination id exactly once and nothing else.
func checkPermutation(current []domain.Destination, ids []uuid.UUID) error {
	if len(ids) != len(current) {
		return fmt.Errorf("%w: expected %d ids, got %d", domain.ErrReorderMismatch, len(current), len(ids))
	}
	known := make(map[uuid.UUID]bool, len(current))
	for _, d := range current {
		known[d.ID] = false
	}
	for _, id := range ids {
		seen, ok := known[id]
		if !ok {
			return fmt.Errorf("%w: unknown destination %s", domain.ErrReorderMismatch, id)
		}
		if seen {
			return fmt.Errorf("%w: duplicate destination %s", domain.ErrReorderMismatch, id)
		}
		known[id] = true
	}
	return nil
}

// validateDestination enforces business rules common to every write.
func validateDestination(d domain.Destination) error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	case utf8.RuneCountInString(d.Name) > maxNameLen:
		return fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, maxNameLen)
	case utf8.RuneCountInString(d.FullName) > maxFullNameLen:
		return fmt.Errorf("%w: full name must be at most %d characters", domain.ErrValidation, maxFullNameLen)
	case utf8.RuneCountInString(d.Type) > maxTypeLen:
		return fmt.Errorf("%w: type must be at most %d characters", domain.ErrValidation, maxTypeLen)
	case utf8.RuneCountInString(d.Description) > maxDescriptionLen:
		return fmt.Errorf("%w: description must be at most %d characters", domain.ErrValidation, maxDescriptionLen)
	case d.Latitude != nil && (*d.Latitude < -90 || *d.Latitude > 90):
		return fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrValidation)
	case d.Longitude != nil && (*d.Longitude < -180 || *d.Longitude > 180):
		return fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrValidation)
	case d.OrderIndex < 0:
		return fmt.Errorf("%w: order index must not be negative", domain.ErrValidation)
	}
	return nil
}
