package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/handler"
	"github.com/pkordes/tripstory/internal/middleware"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	list         func(ctx context.Context) ([]domain.Trip, error)
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	create       func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	update       func(ctx context.Context, id uuid.UUID, p domain.TripPatch) (domain.Trip, error)
	delete       func(ctx context.Context, id uuid.UUID) error
	search       func(ctx context.Context, term string) ([]domain.Trip, error)
	listUpcoming func(ctx context.Context) ([]domain.Trip, error)
	listPast     func(ctx context.Context) ([]domain.Trip, error)
	listOngoing  func(ctx context.Context) ([]domain.Trip, error)
	statistics   func(ctx context.Context) (domain.TripStatistics, error)
}

func (m *mockTripServicer) List(ctx context.Context) ([]domain.Trip, error) {
	return m.list(ctx)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) Create(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockTripServicer) Update(ctx context.Context, id uuid.UUID, p domain.TripPatch) (domain.Trip, error) {
	return m.update(ctx, id, p)
}
func (m *mockTripServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockTripServicer) Search(ctx context.Context, term string) ([]domain.Trip, error) {
	return m.search(ctx, term)
}
func (m *mockTripServicer) ListUpcoming(ctx context.Context) ([]domain.Trip, error) {
	return m.listUpcoming(ctx)
}
func (m *mockTripServicer) ListPast(ctx context.Context) ([]domain.Trip, error) {
	return m.listPast(ctx)
}
func (m *mockTripServicer) ListOngoing(ctx context.Context) ([]domain.Trip, error) {
	return m.listOngoing(ctx)
}
func (m *mockTripServicer) Statistics(ctx context.Context) (domain.TripStatistics, error) {
	return m.statistics(ctx)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

// mockDestinationServicer is a test double for handler.DestinationServicer.
type mockDestinationServicer struct {
	listByTrip         func(ctx context.Context, tripID uuid.UUID) ([]domain.Destination, error)
	getByID            func(ctx context.Context, tripID, id uuid.UUID) (domain.Destination, error)
	add                func(ctx context.Context, tripID uuid.UUID, p domain.DestinationPatch) (domain.Destination, error)
	update             func(ctx context.Context, tripID, id uuid.UUID, p domain.DestinationPatch) (domain.Destination, error)
	delete             func(ctx context.Context, tripID, id uuid.UUID) error
	reorder            func(ctx context.Context, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Destination, error)
	addFromSuggestions func(ctx context.Context, tripID uuid.UUID, s []domain.Suggestion) ([]domain.Destination, error)
}

func (m *mockDestinationServicer) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Destination, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockDestinationServicer) GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Destination, error) {
	return m.getByID(ctx, tripID, id)
}
func (m *mockDestinationServicer) Add(ctx context.Context, tripID uuid.UUID, p domain.DestinationPatch) (domain.Destination, error) {
	return m.add(ctx, tripID, p)
}
func (m *mockDestinationServicer) Update(ctx context.Context, tripID, id uuid.UUID, p domain.DestinationPatch) (domain.Destination, error) {
	return m.update(ctx, tripID, id, p)
}
func (m *mockDestinationServicer) Delete(ctx context.Context, tripID, id uuid.UUID) error {
	return m.delete(ctx, tripID, id)
}
func (m *mockDestinationServicer) Reorder(ctx context.Context, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Destination, error) {
	return m.reorder(ctx, tripID, ids)
}
func (m *mockDestinationServicer) AddFromSuggestions(ctx context.Context, tripID uuid.UUID, s []domain.Suggestion) ([]domain.Destination, error) {
	return m.addFromSuggestions(ctx, tripID, s)
}

var _ handler.DestinationServicer = (*mockDestinationServicer)(nil)

// mockGeocoder records the arguments of its last call.
type mockGeocoder struct {
	suggestions []domain.Suggestion
	query       string
	limit       int
	calls       int
}

func (m *mockGeocoder) Search(_ context.Context, query string, limit int) []domain.Suggestion {
	m.calls++
	m.query, m.limit = query, limit
	return m.suggestions
}

var _ handler.Geocoder = (*mockGeocoder)(nil)

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

// ---- helpers ---------------------------------------------------------------

var testPrincipal = domain.Principal{UID: "user-1", Email: "user@example.com"}

// withPrincipal stands in for the authenticator middleware.
func withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), testPrincipal)))
	})
}

// deps bundles the doubles a test wants wired. Nil fields get empty mocks.
type deps struct {
	trips handler.TripServicer
	dests handler.DestinationServicer
	geo   handler.Geocoder
	db    handler.Pinger
}

// newAuthedRouter wires a Server into the real router with an authenticated
// principal on every request. This mirrors how main.go wires it in production.
func newAuthedRouter(d deps) http.Handler {
	return newRouter(d, withPrincipal)
}

func newRouter(d deps, mws ...func(http.Handler) http.Handler) http.Handler {
	if d.trips == nil {
		d.trips = &mockTripServicer{}
	}
	if d.dests == nil {
		d.dests = &mockDestinationServicer{}
	}
	if d.geo == nil {
		d.geo = &mockGeocoder{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewRouter(handler.NewServer(d.trips, d.dests, d.geo, d.db, logger), mws...)
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// do sends a request through h and returns the recorder.
func do(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeError decodes the shared error body and checks its envelope fields.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder, path string) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Contains(t, body, "message")
	require.Contains(t, body, "details")
	require.Contains(t, body, "timestamp")
	require.Equal(t, path, body["path"])
	return body
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:           uuid.New(),
		Title:        "Summer Tour",
		StartDate:    date(2025, 6, 1),
		EndDate:      date(2025, 6, 15),
		Notes:        "test notes",
		Destinations: []domain.Destination{},
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

func destinationFixture(tripID uuid.UUID, name string, idx int) domain.Destination {
	return domain.Destination{
		ID:         uuid.New(),
		TripID:     tripID,
		Name:       name,
		OrderIndex: idx,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
}
