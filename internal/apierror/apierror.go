// Package apierror renders the single error shape returned by every
// TripStory endpoint and middleware.
package apierror

import (
	"encoding/json"
	"net/http"
	"time"
)

// Body is the JSON error payload. Details is either a string or, for field
// validation failures, a map of JSON field name to message.
type Body struct {
	Message   string    `json:"message"`
	Details   any       `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// Now is the clock used for Body.Timestamp.
var Now = time.Now

// Write sends status with an error body describing message and details.
func Write(w http.ResponseWriter, r *http.Request, status int, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{
		Message:   message,
		Details:   details,
		Timestamp: Now().UTC(),
		Path:      r.URL.Path,
	})
}
