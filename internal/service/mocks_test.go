package service_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/repo"
	"github.com/pkordes/tripstory/internal/service"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	create        func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID       func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	getForUpdate  func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list          func(ctx context.Context) ([]domain.Trip, error)
	search        func(ctx context.Context, term string) ([]domain.Trip, error)
	listUpcoming  func(ctx context.Context, today time.Time) ([]domain.Trip, error)
	listPast      func(ctx context.Context, today time.Time) ([]domain.Trip, error)
	listOngoing   func(ctx context.Context, today time.Time) ([]domain.Trip, error)
	statistics    func(ctx context.Context, today time.Time) (domain.TripStatistics, error)
	existsByTitle func(ctx context.Context, title string) (bool, error)
	update        func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}

// GetForUpdate falls back to getByID so tests only stub one lookup.
func (m *mockTripRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	if m.getForUpdate != nil {
		return m.getForUpdate(ctx, id)
	}
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	return m.list(ctx)
}
func (m *mockTripRepo) Search(ctx context.Context, term string) ([]domain.Trip, error) {
	return m.search(ctx, term)
}
func (m *mockTripRepo) ListUpcoming(ctx context.Context, today time.Time) ([]domain.Trip, error) {
	return m.listUpcoming(ctx, today)
}
func (m *mockTripRepo) ListPast(ctx context.Context, today time.Time) ([]domain.Trip, error) {
	return m.listPast(ctx, today)
}
func (m *mockTripRepo) ListOngoing(ctx context.Context, today time.Time) ([]domain.Trip, error) {
	return m.listOngoing(ctx, today)
}
func (m *mockTripRepo) Statistics(ctx context.Context, today time.Time) (domain.TripStatistics, error) {
	return m.statistics(ctx, today)
}
func (m *mockTripRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	if m.existsByTitle != nil {
		return m.existsByTitle(ctx, title)
	}
	return false, nil
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// mockDestinationRepo is a hand-written test double for repo.DestinationRepo.
// The list methods return empty results when unset.
type mockDestinationRepo struct {
	create           func(ctx context.Context, d domain.Destination) (domain.Destination, error)
	getByID          func(ctx context.Context, tripID, id uuid.UUID) (domain.Destination, error)
	listByTripID     func(ctx context.Context, tripID uuid.UUID) ([]domain.Destination, error)
	listByTripIDs    func(ctx context.Context, tripIDs []uuid.UUID) (map[uuid.UUID][]domain.Destination, error)
	maxOrderIndex    func(ctx context.Context, tripID uuid.UUID) (int, error)
	update           func(ctx context.Context, d domain.Destination) (domain.Destination, error)
	updateOrderIndex func(ctx context.Context, tripID, id uuid.UUID, orderIndex int) error
	delete           func(ctx context.Context, tripID, id uuid.UUID) error
	deleteByTripID   func(ctx context.Context, tripID uuid.UUID) (int64, error)
}

func (m *mockDestinationRepo) Create(ctx context.Context, d domain.Destination) (domain.Destination, error) {
	return m.create(ctx, d)
}
func (m *mockDestinationRepo) GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Destination, error) {
	return m.getByID(ctx, tripID, id)
}
func (m *mockDestinationRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Destination, error) {
	if m.listByTripID != nil {
		return m.listByTripID(ctx, tripID)
	}
	return []domain.Destination{}, nil
}
func (m *mockDestinationRepo) ListByTripIDs(ctx context.Context, tripIDs []uuid.UUID) (map[uuid.UUID][]domain.Destination, error) {
	if m.listByTripIDs != nil {
		return m.listByTripIDs(ctx, tripIDs)
	}
	return map[uuid.UUID][]domain.Destination{}, nil
}
func (m *mockDestinationRepo) MaxOrderIndex(ctx context.Context, tripID uuid.UUID) (int, error) {
	return m.maxOrderIndex(ctx, tripID)
}
func (m *mockDestinationRepo) Update(ctx context.Context, d domain.Destination) (domain.Destination, error) {
	return m.update(ctx, d)
}
func (m *mockDestinationRepo) UpdateOrderIndex(ctx context.Context, tripID, id uuid.UUID, orderIndex int) error {
	return m.updateOrderIndex(ctx, tripID, id, orderIndex)
}
func (m *mockDestinationRepo) Delete(ctx context.Context, tripID, id uuid.UUID) error {
	return m.delete(ctx, tripID, id)
}
func (m *mockDestinationRepo) DeleteByTripID(ctx context.Context, tripID uuid.UUID) (int64, error) {
	return m.deleteByTripID(ctx, tripID)
}

// compile-time check: mockDestinationRepo must satisfy repo.DestinationRepo.
var _ repo.DestinationRepo = (*mockDestinationRepo)(nil)

// mockStore hands out the mock repos and runs InTx inline. It records how
// many transactions were opened and whether the last one failed.
type mockStore struct {
	trips      *mockTripRepo
	dests      *mockDestinationRepo
	txCount    int
	lastTxFail bool
}

func (m *mockStore) Trips() repo.TripRepo               { return m.trips }
func (m *mockStore) Destinations() repo.DestinationRepo { return m.dests }
func (m *mockStore) InTx(_ context.Context, fn func(tx repo.Store) error) error {
	m.txCount++
	err := fn(m)
	m.lastTxFail = err != nil
	return err
}

var _ repo.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{trips: &mockTripRepo{}, dests: &mockDestinationRepo{}}
}

// mockPhotos is a test double for service.PhotoFetcher.
type mockPhotos struct {
	photo *domain.Photo
	calls []string
}

func (m *mockPhotos) FetchForDestination(_ context.Context, name string) *domain.Photo {
	m.calls = append(m.calls, name)
	return m.photo
}

var _ service.PhotoFetcher = (*mockPhotos)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
