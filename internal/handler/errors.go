package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/pkordes/tripstory/internal/apierror"
	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/middleware"
)

// validate is shared by every handler; validator caches struct metadata.
var validate = newValidator()

// newValidator reports field errors by their JSON names so the keys in the
// error details match what the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// respondError maps err onto the shared error shape. notFound is the message
// used when err is domain.ErrNotFound, because only the handler knows what was
// being looked up.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var (
		fieldErrs validator.ValidationErrors
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fieldErrs):
		fields := fieldMessages(fieldErrs)
		s.respondMessage(w, r, http.StatusBadRequest,
			"Validation failed for fields: ["+strings.Join(sortedKeys(fields), ", ")+"]", fields)
	case errors.As(err, &tooLarge):
		s.respondMessage(w, r, http.StatusRequestEntityTooLarge, "Request body too large",
			fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
	case errors.Is(err, domain.ErrNotFound):
		s.respondMessage(w, r, http.StatusNotFound, notFound, "The requested resource could not be found")
	case errors.Is(err, domain.ErrValidation):
		s.respondMessage(w, r, http.StatusBadRequest, unwrapMessage(err), "Invalid request data provided")
	case errors.Is(err, domain.ErrUnauthenticated):
		s.respondMessage(w, r, http.StatusUnauthorized, "Authentication required",
			"A valid bearer token must be supplied")
	default:
		s.logger.ErrorContext(r.Context(), "unexpected error",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		s.respondMessage(w, r, http.StatusInternalServerError, "An unexpected error occurred",
			"Please try again later or contact support if the problem persists")
	}
}

// respondMessage writes an error body with an explicit status. 4xx responses
// are logged at debug level only.
func (s *Server) respondMessage(w http.ResponseWriter, r *http.Request, status int, message string, details any) {
	if status < http.StatusInternalServerError {
		s.logger.DebugContext(r.Context(), "request rejected", "status", status, "message", message, "path", r.URL.Path)
	}
	apierror.Write(w, r, status, message, details)
}

// requireAuth rejects requests that reached it without an authenticated
// principal. The authenticator middleware must run earlier in the chain.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.PrincipalFrom(r.Context()); !ok {
			s.respondError(w, r, domain.ErrUnauthenticated, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// fieldMessages turns validator errors into a JSON field name → message map.
func fieldMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if _, dup := out[field]; dup {
			continue
		}
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "max":
			out[field] = "must be at most " + fe.Param()
		case "min":
			out[field] = "must be at least " + fe.Param()
		default:
			out[field] = "failed the " + fe.Tag() + " check"
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Update: validation error: title is required" → "title is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		head, rest, found := strings.Cut(msg, ": ")
		if !found || !isCallSite(head) {
			break
		}
		msg = rest
	}
	return strings.Replace(msg, domain.ErrValidation.Error()+": ", "", 1)
}

// isCallSite reports whether s looks like a "pkg.Type.Method" wrap prefix.
func isCallSite(s string) bool {
	return strings.Count(s, ".") >= 2 && !strings.ContainsAny(s, " []")
}
