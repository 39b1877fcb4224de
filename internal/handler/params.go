package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// errEmptyBody is returned by decodeBody when the request has no body.
var errEmptyBody = errors.New("request body is required")

// pathUUID binds the named chi path parameter as a UUID.
func pathUUID(r *http.Request, name string) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return openapi_types.UUID{}, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return id, nil
}

// queryParam binds a form-style query parameter. A required parameter that
// is absent is an error; an optional one leaves dst untouched.
func queryParam(r *http.Request, name string, required bool, dst any) error {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dst); err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

// decodeBody decodes the JSON request body into the struct pointed to by v
// and validates it. A body over the configured size limit surfaces as
// *http.MaxBytesError.
func decodeBody(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return validate.Struct(v)
}

// decodeJSON decodes the JSON request body into v without validating it.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// badRequest writes the response for input rejected before it reached a
// service: field errors and oversized bodies keep their own mapping, anything
// else is a malformed request.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var (
		fieldErrs validator.ValidationErrors
		tooLarge  *http.MaxBytesError
	)
	if errors.As(err, &fieldErrs) || errors.As(err, &tooLarge) {
		s.respondError(w, r, err, "")
		return
	}
	s.respondMessage(w, r, http.StatusBadRequest, "Malformed request", err.Error())
}

// writeJSON writes v as the JSON response body with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode JSON response", "error", err)
	}
}
