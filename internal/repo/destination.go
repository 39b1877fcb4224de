package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripstory/internal/domain"
)

// DestinationRepo defines the persistence operations for Destinations.
// Every lookup is scoped by trip: a destination id that belongs to another
// trip is reported as domain.ErrNotFound.
type DestinationRepo interface {
	// Create inserts a destination and returns the persisted record.
	Create(ctx context.Context, d domain.Destination) (domain.Destination, error)

	// GetByID retrieves a destination by id within its trip.
	GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Destination, error)

	// ListByTripID returns the trip's destinations ordered by order_index.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Destination, error)

	// ListByTripIDs loads the destinations of many trips in one round trip,
	// keyed by trip id. Trips without destinations are absent from the map.
	ListByTripIDs(ctx context.Context, tripIDs []uuid.UUID) (map[uuid.UUID][]domain.Destination, error)

	// MaxOrderIndex returns the highest order_index in the trip, or -1 when
	// the trip has no destinations.
	MaxOrderIndex(ctx context.Context, tripID uuid.UUID) (int, error)

	// Update overwrites the mutable fields of a destination.
	Update(ctx context.Context, d domain.Destination) (domain.Destination, error)

	// UpdateOrderIndex moves a single destination to a new position.
	UpdateOrderIndex(ctx context.Context, tripID, id uuid.UUID, orderIndex int) error

	// Delete removes a destination from its trip.
	Delete(ctx context.Context, tripID, id uuid.UUID) error

	// DeleteByTripID removes every destination of a trip and reports how many
	// rows were deleted.
	DeleteByTripID(ctx context.Context, tripID uuid.UUID) (int64, error)
}

// pgDestinationRepo is the Postgres implementation of DestinationRepo.
type pgDestinationRepo struct {
	db db
}

// NewDestinationRepo constructs a DestinationRepo backed by the provided db connection.
func NewDestinationRepo(db db) DestinationRepo {
	return &pgDestinationRepo{db: db}
}

const destinationColumns = `id, trip_id, name, full_name, type, latitude, longitude,
	description, order_index, created_at, updated_at`

func (r *pgDestinationRepo) Create(ctx context.Context, d domain.Destination) (domain.Destination, error) {
	const q = `
		INSERT INTO destinations (trip_id, name, full_name, type, latitude, longitude, description, order_index)
		VALUES (@trip_id, @name, @full_name, @type, @latitude, @longitude, @description, @order_index)
		RETURNING ` + destinationColumns

	args := pgx.NamedArgs{
		"trip_id":     d.TripID,
		"name":        d.Name,
		"full_name":   d.FullName,
		"type":        d.Type,
		"latitude":    d.Latitude,
		"longitude":   d.Longitude,
		"description": d.Description,
		"order_index": d.OrderIndex,
	}

	result, err := scanDestination(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Destination{}, fmt.Errorf("repo.DestinationRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgDestinationRepo) GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Destination, error) {
	const q = `
		SELECT ` + destinationColumns + `
		FROM destinations
		WHERE id = @id AND trip_id = @trip_id`

	result, err := scanDestination(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID}))
	if err != nil {
		return domain.Destination{}, fmt.Errorf("repo.DestinationRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgDestinationRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Destination, error) {
	const q = `
		SELECT ` + destinationColumns + `
		FROM destinations
		WHERE trip_id = @trip_id
		ORDER BY order_index ASC, created_at ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.DestinationRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	dests := []domain.Destination{}
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DestinationRepo.ListByTripID: scan: %w", err)
		}
		dests = append(dests, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DestinationRepo.ListByTripID: rows: %w", err)
	}
	return dests, nil
}

func (r *pgDestinationRepo) ListByTripIDs(ctx context.Context, tripIDs []uuid.UUID) (map[uuid.UUID][]domain.Destination, error) {
	out := make(map[uuid.UUID][]domain.Destination, len(tripIDs))
	if len(tripIDs) == 0 {
		return out, nil
	}

	const q = `
		SELECT ` + destinationColumns + `
		FROM destinations
		WHERE trip_id = ANY(@trip_ids)
		ORDER BY trip_id, order_index ASC, created_at ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_ids": tripIDs})
	if err != nil {
		return nil, fmt.Errorf("repo.DestinationRepo.ListByTripIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DestinationRepo.ListByTripIDs: scan: %w", err)
		}
		out[d.TripID] = append(out[d.TripID], d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DestinationRepo.ListByTripIDs: rows: %w", err)
	}
	return out, nil
}

func (r *pgDestinationRepo) MaxOrderIndex(ctx context.Context, tripID uuid.UUID) (int, error) {
	const q = `SELECT COALESCE(MAX(order_index), -1) FROM destinations WHERE trip_id = @trip_id`

	var maxIdx int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}).Scan(&maxIdx); err != nil {
		return 0, fmt.Errorf("repo.DestinationRepo.MaxOrderIndex: %w", err)
	}
	return maxIdx, nil
}

func (r *pgDestinationRepo) Update(ctx context.Context, d domain.Destination) (domain.Destination, error) {
	const q = `
		UPDATE destinations
		SET name        = @name,
		    full_name   = @full_name,
		    type        = @type,
		    latitude    = @latitude,
		    longitude   = @longitude,
		    description = @description,
		    order_index = @order_index,
		    updated_at  = now()
		WHERE id = @id AND trip_id = @trip_id
		RETURNING ` + destinationColumns

	args := pgx.NamedArgs{
		"id":          d.ID,
		"trip_id":     d.TripID,
		"name":        d.Name,
		"full_name":   d.FullName,
		"type":        d.Type,
		"latitude":    d.Latitude,
		"longitude":   d.Longitude,
		"description": d.Description,
		"order_index": d.OrderIndex,
	}

	result, err := scanDestination(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Destination{}, fmt.Errorf("repo.DestinationRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgDestinationRepo) UpdateOrderIndex(ctx context.Context, tripID, id uuid.UUID, orderIndex int) error {
	const q = `
		UPDATE destinations
		SET order_index = @order_index, updated_at = now()
		WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID, "order_index": orderIndex})
	if err != nil {
		return fmt.Errorf("repo.DestinationRepo.UpdateOrderIndex: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DestinationRepo.UpdateOrderIndex: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgDestinationRepo) Delete(ctx context.Context, tripID, id uuid.UUID) error {
	const q = `DELETE FROM destinations WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.DestinationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DestinationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgDestinationRepo) DeleteByTripID(ctx context.Context, tripID uuid.UUID) (int64, error) {
	const q = `DELETE FROM destinations WHERE trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return 0, fmt.Errorf("repo.DestinationRepo.DeleteByTripID: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanDestination maps a single database row into a domain.Destination.
// Latitude and longitude are nullable and stay nil when NULL.
func scanDestination(s scanner) (domain.Destination, error) {
	var (
		d        domain.Destination
		id       pgtype.UUID
		tripID   pgtype.UUID
		lat, lon pgtype.Float8
	)

	err := s.Scan(&id, &tripID, &d.Name, &d.FullName, &d.Type, &lat, &lon,
		&d.Description, &d.OrderIndex, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Destination{}, domain.ErrNotFound
		}
		return domain.Destination{}, err
	}

	d.ID = uuid.UUID(id.Bytes)
	d.TripID = uuid.UUID(tripID.Bytes)
	if lat.Valid {
		d.Latitude = &lat.Float64
	}
	if lon.Valid {
		d.Longitude = &lon.Float64
	}
	return d, nil
}
