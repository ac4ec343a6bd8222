// Package httputil centralizes JSON response writing so every handler emits the
// same envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "regdesk/pkg/domain-errors"
)

// MaxJSONBodyBytes bounds JSON request bodies (drafts, identification payloads).
const MaxJSONBodyBytes = 8 << 20

type errorEnvelope struct {
	Error       string   `json:"error"`
	Description string   `json:"error_description,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	var env errorEnvelope
	if de, ok := dErrors.As(err); ok {
		code = de.Code
		if code != dErrors.CodeInternal {
			env.Description = de.Message
			env.Errors = de.Details
		}
	}
	env.Error = string(code)
	WriteJSON(w, dErrors.ToHTTPStatus(code), env)
}

// DecodeJSON decodes a bounded JSON body into dst, rejecting unknown shapes
// with a bad_request error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dErrors.New(dErrors.CodePayloadTooLarge, "request body too large")
		}
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
