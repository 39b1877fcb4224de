// Package provider holds the plumbing shared by the outbound API clients:
// a timeout-bound HTTP client, a circuit breaker per provider, and a JSON
// GET helper that records outcome metrics.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pkordes/tripstory/internal/metrics"
)

// Outcome labels for metrics.ProviderRequests.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeBreakerOpen = "breaker_open"
	OutcomeSkipped     = "skipped"
)

// consecutiveFailuresToTrip opens the breaker after this many failures in a row.
const consecutiveFailuresToTrip = 5

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
}

// Caller performs JSON GET requests against one provider.
type Caller struct {
	name    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[response]
	logger  *slog.Logger
}

// NewCaller builds a Caller whose requests are bounded by timeout and guarded
// by a circuit breaker that opens after consecutive failures and half-opens
// again after openFor.
func NewCaller(name string, timeout, openFor time.Duration, logger *slog.Logger) *Caller {
	c := &Caller{
		name:   name,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailuresToTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider circuit breaker state changed",
				"provider", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Skip records a call that was not attempted, e.g. for missing credentials.
func (c *Caller) Skip() {
	metrics.ProviderRequests.WithLabelValues(c.name, OutcomeSkipped).Inc()
}

// response is what passes through the breaker: the body of a 2xx reply and
// its headers.
type response struct {
	header http.Header
	body   []byte
}

// GetJSON sends req through the circuit breaker and decodes a 2xx JSON body
// into out. The error is wrapped with the provider name; callers decide
// whether it is fatal.
func (c *Caller) GetJSON(ctx context.Context, req *http.Request, out any) error {
	_, err := c.FetchJSON(ctx, req, out)
	return err
}

// FetchJSON is GetJSON that also returns the response headers, for callers
// that honour caching directives.
func (c *Caller) FetchJSON(ctx context.Context, req *http.Request, out any) (http.Header, error) {
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	res, err := c.breaker.Execute(func() (response, error) {
		start := time.Now()
		resp, err := c.client.Do(req)
		metrics.ProviderDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
		if err != nil {
			return response{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return response{}, &StatusError{Provider: c.name, Code: resp.StatusCode}
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return response{}, err
		}
		return response{header: resp.Header, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ProviderRequests.WithLabelValues(c.name, OutcomeBreakerOpen).Inc()
		} else {
			metrics.ProviderRequests.WithLabelValues(c.name, OutcomeError).Inc()
		}
		return nil, fmt.Errorf("provider.%s: %w", c.name, err)
	}

	if err := json.Unmarshal(res.body, out); err != nil {
		metrics.ProviderRequests.WithLabelValues(c.name, OutcomeError).Inc()
		return nil, fmt.Errorf("provider.%s: decode: %w", c.name, err)
	}
	metrics.ProviderRequests.WithLabelValues(c.name, OutcomeOK).Inc()
	return res.header, nil
}
