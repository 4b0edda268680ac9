package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicagent/internal/shared"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Detail any `json:"detail"`
}

// WriteJSON writes v as JSON with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes {"detail": detail} with status.
func WriteDetail(w http.ResponseWriter, status int, detail any) {
	WriteJSON(w, status, errorBody{Detail: detail})
}

// StatusFor maps err to an HTTP status.
//
//   - [*shared.UpstreamError] : the provider's status
//   - [shared.ErrNotFound], [shared.ErrNotLinked] : 404
//   - [shared.ErrMissingCredentials] : 400
//   - [shared.ErrUnauthorized] : 401
//   - [shared.ErrConflict] : 409
//   - [shared.ErrValidation] : 422
//   - other upstream failures : 502
//   - anything else : 500
func StatusFor(err error) int {
	if ue, ok := shared.AsUpstream(err); ok && ue.Status >= 400 {
		return ue.Status
	}

	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrNotLinked):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrUpstreamAuth), errors.Is(err, shared.ErrUpstreamAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err using [StatusFor].
//
// Provider bodies are forwarded as JSON when they parse and as a string otherwise.
// Internal errors are logged and reported, and their message is not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	status := StatusFor(err)

	if ue, ok := shared.AsUpstream(err); ok {
		var detail any = string(ue.Body)
		if json.Valid(ue.Body) {
			detail = json.RawMessage(ue.Body)
		}
		logger.Warn("upstream rejected request", "path", r.URL.Path, "status", ue.Status)
		WriteDetail(w, status, detail)
		return
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "err", err)
		captureError(r, err)
		if status == http.StatusInternalServerError {
			WriteDetail(w, status, "Internal Server Error")
			return
		}
	}

	WriteDetail(w, status, err.Error())
}

// decodeJSON reads a JSON request body into v. Malformed bodies are validation errors.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrValidation, err)
	}
	return nil
}
