package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/pkordes/tripstory/internal/middleware"
)

// healthTimeout bounds the database ping made by the health probe.
const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
}

type testResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running and,
// if a database is configured, reachable. Otherwise it returns 503.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "health check: database unreachable", "error", err)
			s.writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	s.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
}

// GetTripsTest handles GET /api/trips/test, an unauthenticated probe that
// reports whether the request carried a valid bearer token.
func (s *Server) GetTripsTest(w http.ResponseWriter, r *http.Request) {
	_, authed := middleware.PrincipalFrom(r.Context())
	s.writeJSON(w, r, http.StatusOK, testResponse{Status: "ok", Authenticated: authed})
}
