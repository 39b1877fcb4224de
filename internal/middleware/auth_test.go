package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripstory/internal/auth"
	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/middleware"
)

// stubValidator accepts exactly one token.
type stubValidator struct {
	good  string
	calls int
}

func (s *stubValidator) Validate(_ context.Context, token string) (*auth.Claims, error) {
	s.calls++
	if token != s.good {
		return nil, errors.New("rejected")
	}
	return &auth.Claims{
		Email:            "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "uid-1"},
	}, nil
}

var _ middleware.TokenValidator = (*stubValidator)(nil)

func TestAuthenticator(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantFound bool
		wantCalls int
	}{
		{"valid token", "Bearer good", true, 1},
		{"lowercase scheme", "bearer good", true, 1},
		{"invalid token", "Bearer bad", false, 1},
		{"no header", "", false, 0},
		{"basic auth", "Basic dXNlcjpwYXNz", false, 0},
		{"empty bearer", "Bearer ", false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := &stubValidator{good: "good"}
			var (
				got   domain.Principal
				found bool
			)
			h := middleware.NewAuthenticator(v, slog.New(slog.NewTextHandler(io.Discard, nil)))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					got, found = middleware.PrincipalFrom(r.Context())
					w.WriteHeader(http.StatusOK)
				}),
			)

			req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, "authenticator never rejects by itself")
			assert.Equal(t, tc.wantFound, found)
			assert.Equal(t, tc.wantCalls, v.calls)
			if tc.wantFound {
				assert.Equal(t, domain.Principal{UID: "uid-1", Email: "ada@example.com"}, got)
			}
		})
	}
}
