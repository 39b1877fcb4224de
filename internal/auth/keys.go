package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/pkordes/tripstory/internal/provider"
)

// DefaultCertsURL publishes the x509 certificates that sign Firebase ID tokens.
const DefaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const (
	defaultKeyTTL = time.Hour
	// minRefreshInterval bounds refetches triggered by unknown key ids.
	minRefreshInterval = time.Minute
)

// ErrUnknownKey is returned when no published certificate matches a key id.
var ErrUnknownKey = errors.New("auth: unknown signing key")

// KeySource resolves the RSA public key for a key id.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// CertKeySource fetches the provider's certificate map ({kid: PEM}) and
// caches the parsed keys until the Cache-Control max-age elapses. An unknown
// kid forces a refresh, at most once per minRefreshInterval.
type CertKeySource struct {
	url    string
	caller *provider.Caller
	now    func() time.Time
	logger *slog.Logger
	group  singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
}

// NewCertKeySource returns a KeySource backed by the certificate endpoint at url.
func NewCertKeySource(url string, timeout time.Duration, logger *slog.Logger) *CertKeySource {
	if url == "" {
		url = DefaultCertsURL
	}
	return &CertKeySource{
		url:    url,
		caller: provider.NewCaller("firebase_certs", timeout, 30*time.Second, logger),
		now:    time.Now,
		logger: logger,
	}
}

// Key returns the public key for kid, refreshing the cache when it is stale
// or does not know kid.
func (s *CertKeySource) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	key, ok := s.keys[kid]
	fresh := s.now().Before(s.expiresAt)
	recent := s.now().Sub(s.fetchedAt) < minRefreshInterval
	s.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}
	if !ok && fresh && recent {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
	}

	// The shared refresh outlives any one caller; the client timeout bounds it.
	ch := s.group.DoChan("refresh", func() (any, error) {
		return nil, s.refresh(context.WithoutCancel(ctx))
	})
	var err error
	select {
	case res := <-ch:
		err = res.Err
	case <-ctx.Done():
		if ok {
			return key, nil
		}
		return nil, ctx.Err()
	}
	if err != nil {
		// A stale key is better than none while the endpoint is unreachable.
		if ok {
			s.logger.WarnContext(ctx, "certificate refresh failed, using cached key", "error", err)
			return key, nil
		}
		return nil, err
	}

	s.mu.RLock()
	key, ok = s.keys[kid]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
	}
	return key, nil
}

func (s *CertKeySource) refresh(ctx context.Context) error {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("auth.CertKeySource.refresh: %w", err)
	}

	var certs map[string]string
	header, err := s.caller.FetchJSON(ctx, req, &certs)
	if err != nil {
		return fmt.Errorf("auth.CertKeySource.refresh: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unparseable signing certificate", "kid", kid, "error", err)
			continue
		}
		keys[kid] = key
	}

	now := s.now()
	s.mu.Lock()
	s.keys = keys
	s.fetchedAt = now
	s.expiresAt = now.Add(maxAge(header.Get("Cache-Control")))
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "signing certificates refreshed", "count", len(keys))
	return nil
}

// maxAge extracts max-age from a Cache-Control header, defaulting to an hour.
func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		value, found := strings.CutPrefix(strings.ToLower(directive), "max-age=")
		if !found {
			continue
		}
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultKeyTTL
}
