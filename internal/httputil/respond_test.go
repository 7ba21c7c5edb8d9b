package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nanumsa/server/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK_WrapsInSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "world", body["success"]["hello"])
}

func TestErr_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrForbidden, http.StatusForbidden},
		{apperr.ErrLastAdmin, http.StatusConflict},
		{apperr.ErrConflict, http.StatusConflict},
		{apperr.ErrUnauthorized, http.StatusUnauthorized},
		{apperr.ErrUpstream, http.StatusBadGateway},
		{apperr.ErrValidation, http.StatusBadRequest},
		{apperr.ErrCorruptAdminSet, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", apperr.ErrForbidden), http.StatusForbidden},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Err(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, "for %v", tc.err)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
	}
}

func TestErr_UnknownErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Err(rec, errors.New("pq: connection refused at 10.0.3.7"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body["error"], "10.0.3.7")
}
