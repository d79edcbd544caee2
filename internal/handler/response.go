package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/notify"
	"github.com/threewords/journal/internal/service"
	"github.com/threewords/journal/internal/sheets"
	"github.com/threewords/journal/internal/validation"
)

// maxBodySize bounds JSON request bodies. Imports have their own limit.
const maxBodySize = 1 << 20

type errorResponse struct {
	Error        string              `json:"error"`
	AuthorizeURL string              `json:"authorizeUrl,omitempty"`
	Notification notify.Notification `json:"notification"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// writeError answers with the status and user-facing message for err.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	n := notify.FromError(err)

	body := errorResponse{Error: n.Message, Notification: n}

	var required *sheets.AuthorizationRequiredError
	if errors.As(err, &required) {
		body.AuthorizeURL = required.URL
	}

	var wordsErr *service.WordsError
	if errors.As(err, &wordsErr) {
		body.Error = wordsErr.Message
		body.Notification = notify.Error(wordsErr.Message)
	}

	switch {
	case errors.Is(err, service.ErrEntryNotFound):
		body.Error = "Entry not found."
		body.Notification = notify.Error(body.Error)
	case errors.Is(err, service.ErrArchiveDisabled):
		body.Error = "Export archives are not available on this server."
		body.Notification = notify.Error(body.Error)
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path, "status", status)
	} else {
		slog.WarnContext(r.Context(), "request rejected", "error", err, "path", r.URL.Path, "status", status)
	}
	writeJSON(w, status, body)
}

// writeMessage answers with an error built from a literal message.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, Notification: notify.Error(message)})
}

func statusFor(err error) int {
	var required *sheets.AuthorizationRequiredError
	var wordsErr *service.WordsError

	switch {
	case errors.As(err, &wordsErr):
		return wordsErr.Status
	case errors.Is(err, validation.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, journal.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrArchiveDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &required), errors.Is(err, sheets.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, sheets.ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, sheets.ErrAuthorizationTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, sheets.ErrMalformedRemoteState):
		return http.StatusConflict
	case errors.Is(err, sheets.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		slog.WarnContext(r.Context(), "invalid request body", "error", err, "path", r.URL.Path)
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}
