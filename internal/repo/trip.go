package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripstory/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
//
// Date-relative queries take "today" as a parameter instead of using CURRENT_DATE
// so the caller's clock decides what today is.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id, created_at, and updated_at populated). Returns domain.ErrDuplicateTitle
	// if the unique title index rejects the row.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// GetForUpdate is GetByID plus a row lock held until the surrounding
	// transaction ends. Outside a transaction the lock is released immediately.
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// List returns all trips ordered by start_date descending.
	List(ctx context.Context) ([]domain.Trip, error)

	// Search returns trips whose title contains term, case-insensitively.
	Search(ctx context.Context, term string) ([]domain.Trip, error)

	// ListUpcoming returns trips starting after today, soonest first.
	ListUpcoming(ctx context.Context, today time.Time) ([]domain.Trip, error)

	// ListPast returns trips that ended before today, most recent start first.
	ListPast(ctx context.Context, today time.Time) ([]domain.Trip, error)

	// ListOngoing returns trips whose date range includes today (inclusive).
	ListOngoing(ctx context.Context, today time.Time) ([]domain.Trip, error)

	// Statistics counts all trips and the upcoming/ongoing/past subsets in one
	// statement so the numbers come from the same snapshot.
	Statistics(ctx context.Context, today time.Time) (domain.TripStatistics, error)

	// ExistsByTitle reports whether a trip with this title exists, ignoring case.
	ExistsByTitle(ctx context.Context, title string) (bool, error)

	// Update overwrites the mutable fields of an existing trip and returns the
	// updated record. Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, title, start_date, end_date, notes, image_url, image_attribution, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (title, start_date, end_date, notes, image_url, image_attribution)
		VALUES (@title, @start_date, @end_date, @notes, @image_url, @image_attribution)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"title":             trip.Title,
		"start_date":        trip.StartDate,
		"end_date":          trip.EndDate,
		"notes":             trip.Notes,
		"image_url":         trip.ImageURL,
		"image_attribution": trip.ImageAttribution,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetForUpdate retrieves a trip by primary key and locks its row.
func (r *pgTripRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id FOR UPDATE`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetForUpdate: %w", err)
	}
	return result, nil
}

// List returns all trips ordered by start_date descending (most recent first).
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips ORDER BY start_date DESC, created_at DESC`

	trips, err := r.queryTrips(ctx, q, nil)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	return trips, nil
}

// Search matches term as a literal substring: position() does not treat
// % or _ as wildcards the way LIKE would.
func (r *pgTripRepo) Search(ctx context.Context, term string) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE position(lower(@term) in lower(title)) > 0
		ORDER BY start_date DESC`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"term": term})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.Search: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) ListUpcoming(ctx context.Context, today time.Time) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE start_date > @today
		ORDER BY start_date ASC`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"today": today})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListUpcoming: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) ListPast(ctx context.Context, today time.Time) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE end_date < @today
		ORDER BY start_date DESC`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"today": today})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListPast: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) ListOngoing(ctx context.Context, today time.Time) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE @today BETWEEN start_date AND end_date
		ORDER BY start_date ASC`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"today": today})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListOngoing: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) Statistics(ctx context.Context, today time.Time) (domain.TripStatistics, error) {
	const q = `
		SELECT count(*),
		       count(*) FILTER (WHERE start_date > @today),
		       count(*) FILTER (WHERE @today BETWEEN start_date AND end_date),
		       count(*) FILTER (WHERE end_date < @today)
		FROM trips`

	var s domain.TripStatistics
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"today": today}).
		Scan(&s.Total, &s.Upcoming, &s.Ongoing, &s.Past)
	if err != nil {
		return domain.TripStatistics{}, fmt.Errorf("repo.TripRepo.Statistics: %w", err)
	}
	return s, nil
}

func (r *pgTripRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM trips WHERE lower(title) = lower(@title))`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"title": title}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.TripRepo.ExistsByTitle: %w", err)
	}
	return exists, nil
}

// Update overwrites the mutable fields of a trip and returns the updated record.
// created_at is never written; updated_at is refreshed on every call.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET title             = @title,
		    start_date        = @start_date,
		    end_date          = @end_date,
		    notes             = @notes,
		    image_url         = @image_url,
		    image_attribution = @image_attribution,
		    updated_at        = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":                trip.ID,
		"title":             trip.Title,
		"start_date":        trip.StartDate,
		"end_date":          trip.EndDate,
		"notes":             trip.Notes,
		"image_url":         trip.ImageURL,
		"image_attribution": trip.ImageAttribution,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

// Delete removes a trip by primary key. Destinations go with it through the
// ON DELETE CASCADE foreign key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// queryTrips runs a multi-row trip query and scans every row.
// Always returns a non-nil slice on success.
func (r *pgTripRepo) queryTrips(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if args == nil {
		rows, err = r.db.Query(ctx, q)
	} else {
		rows, err = r.db.Query(ctx, q, args)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and DATE conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
	)

	err := s.Scan(&id, &t.Title, &startDate, &endDate, &t.Notes, &t.ImageURL,
		&t.ImageAttribution, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = domain.CalendarDate(startDate.Time)
	t.EndDate = domain.CalendarDate(endDate.Time)
	return t, nil
}
