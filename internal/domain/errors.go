package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. blank title, end date before start date).
// Handlers should map this to HTTP 400 Bad Request.
var ErrValidation = errors.New("validation error")

// ErrDuplicateTitle is returned when a trip title collides case-insensitively
// with an existing trip. It wraps ErrValidation, so errors.Is(err, ErrValidation)
// also holds and the handler responds 400.
var ErrDuplicateTitle = fmt.Errorf("%w: trip title already exists", ErrValidation)

// ErrReorderMismatch is returned when a reorder request is not an exact
// permutation of the trip's current destination ids. Wraps ErrValidation.
var ErrReorderMismatch = fmt.Errorf("%w: destination ids do not match trip", ErrValidation)

// ErrUnauthenticated is returned when a protected operation is attempted
// without a valid bearer token. Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")
