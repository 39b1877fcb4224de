// Package auth validates Firebase ID tokens presented as bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuerPrefix is prepended to the project id to form the expected issuer.
const IssuerPrefix = "https://securetoken.google.com/"

// ErrInvalidToken is returned for any token that must be rejected.
// The wrapped error carries the specific reason.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the claim set of an accepted ID token.
type Claims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Config configures a Validator.
type Config struct {
	ProjectID string
	// Keys verifies signatures. When nil, signatures are not checked and the
	// claims are trusted after the structural checks.
	Keys KeySource
}

// Validator accepts or rejects bearer tokens.
type Validator struct {
	projectID string
	keys      KeySource
	now       func() time.Time
	logger    *slog.Logger
}

// NewValidator constructs a Validator. It logs a warning when signature
// verification is disabled.
func NewValidator(cfg Config, logger *slog.Logger) *Validator {
	if cfg.Keys == nil {
		logger.Warn("token signature verification disabled, claims are trusted unverified")
	}
	return &Validator{projectID: cfg.ProjectID, keys: cfg.Keys, now: time.Now, logger: logger}
}

// WithClock returns a copy of v that uses now as the current time.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	c := *v
	c.now = now
	return &c
}

// Validate parses token and checks its algorithm, issuer, audience, expiry
// and subject, plus its RS256 signature when a KeySource is configured.
func (v *Validator) Validate(ctx context.Context, token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("%w: expected three segments", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(IssuerPrefix + v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	}

	claims := &Claims{}
	if v.keys != nil {
		_, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid header")
			}
			return v.keys.Key(ctx, kid)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	} else {
		parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		if alg := parsed.Method.Alg(); alg != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("%w: unexpected signing method %s", ErrInvalidToken, alg)
		}
		if err := jwt.NewValidator(opts...).Validate(claims); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
