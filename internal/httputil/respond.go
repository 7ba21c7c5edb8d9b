package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/nanumsa/server/internal/apperr"
)

// Every response is one of {"success": payload} or {"error": message}.
// Clients key off the envelope, not the HTTP status, but we still set
// a meaningful status for proxies and logs.

type successEnvelope struct {
	Success any `json:"success"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[httputil] failed to encode response: %v", err)
	}
}

// OK renders {"success": payload} with a 200.
func OK(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: payload})
}

// Fail renders {"error": message} with the given status.
func Fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Error: message})
}

// Err maps a domain error onto a status code and renders the error
// envelope. Unknown errors become a 500 with a generic message so
// internals never leak to clients.
func Err(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		Fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrLastAdmin):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrUpstream):
		Fail(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrCorruptAdminSet):
		Fail(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[httputil] unhandled error: %v", err)
		Fail(w, http.StatusInternalServerError, "internal server error")
	}
}
