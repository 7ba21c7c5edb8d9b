package apperr

import "errors"

// Common errors surfaced to the request boundary. Every handler maps
// these into the JSON envelope; none of them escape as a process error.
var (
	ErrNotFound        = errors.New("no matching data")
	ErrForbidden       = errors.New("not an admin of this share")
	ErrLastAdmin       = errors.New("at least one admin is required")
	ErrCorruptAdminSet = errors.New("admin set contains a non-numeric entry")
	ErrUnauthorized    = errors.New("missing or invalid auth token")
	ErrConflict        = errors.New("conflicting data already exists")
	ErrUpstream        = errors.New("upstream service failed")
	ErrValidation      = errors.New("invalid request data")
)
