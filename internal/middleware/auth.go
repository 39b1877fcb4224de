package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/tripstory/internal/auth"
	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/metrics"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// NewAuthenticator returns a middleware that validates the bearer token in
// the Authorization header and, when it is accepted, attaches the caller's
// principal to the request context. Requests are never rejected here: a
// missing or invalid token just leaves the context without a principal, and
// protected routes turn that into 401.
func NewAuthenticator(v TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Validate(r.Context(), token)
			if err != nil {
				metrics.AuthDecisions.WithLabelValues("rejected").Inc()
				log.DebugContext(r.Context(), "bearer token rejected", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			metrics.AuthDecisions.WithLabelValues("accepted").Inc()
			ctx := WithPrincipal(r.Context(), domain.Principal{UID: claims.Subject, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
