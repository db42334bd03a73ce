// Package httputil centralizes JSON response and error envelope writing so
// every handler translates domain errors the same way.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "convene/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the stable JSON error envelope.
// Internal errors omit the description: their messages are for logs, not
// clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.Message(err); msg != "" {
			body["error_description"] = msg
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
