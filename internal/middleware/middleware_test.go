package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nanumsa/server/internal/middleware"
	"github.com/nanumsa/server/internal/utils"
)

// mockFetcher implements middleware.TokenFetcher without any database dependency.
type mockFetcher struct {
	userID int64
	err    error
}

func (m mockFetcher) FindUserIDByToken(token string) (int64, error) {
	return m.userID, m.err
}

// callWithToken wraps a simple 200-OK inner handler in the provided middleware,
// optionally setting the AuthToken header, and returns the recorded response.
func callWithToken(t *testing.T, mw func(http.Handler) http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := mw(inner)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("AuthToken", token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestRequireAuth_MissingHeader verifies that a request with no AuthToken
// header receives a 401 error envelope.
func TestRequireAuth_MissingHeader(t *testing.T) {
	mw := middleware.RequireAuth(mockFetcher{})

	rec := callWithToken(t, mw, "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("expected error envelope, got: %q", rec.Body.String())
	}
}

// TestRequireAuth_UnknownToken verifies that a fetcher error (token not found)
// results in a 401 response.
func TestRequireAuth_UnknownToken(t *testing.T) {
	mw := middleware.RequireAuth(mockFetcher{err: errors.New("token not found")})

	rec := callWithToken(t, mw, "nonexistent-token")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestRequireAuth_ValidToken verifies that a valid token yields a 200 and
// that the user id is injected into the context.
func TestRequireAuth_ValidToken(t *testing.T) {
	const wantUserID int64 = 42

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "userID not in context", http.StatusInternalServerError)
			return
		}
		if gotUserID != wantUserID {
			http.Error(w, "wrong userID in context", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mw := middleware.RequireAuth(mockFetcher{userID: wantUserID})
	handler := mw(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("AuthToken", "valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

// TestOptionalAuth_Anonymous verifies that a request with no token passes
// through with no user id in context.
func TestOptionalAuth_Anonymous(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); ok {
			http.Error(w, "unexpected userID in context", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mw := middleware.OptionalAuth(mockFetcher{err: errors.New("should not be called")})
	handler := mw(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// TestOptionalAuth_InvalidTokenStillAnonymous verifies that an unknown token
// downgrades to anonymous instead of failing the request.
func TestOptionalAuth_InvalidTokenStillAnonymous(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); ok {
			http.Error(w, "unexpected userID in context", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mw := middleware.OptionalAuth(mockFetcher{err: errors.New("token not found")})
	handler := mw(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("AuthToken", "stale-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// TestOptionalAuth_ValidToken verifies that a resolvable token injects the
// user id for read-path annotation.
func TestOptionalAuth_ValidToken(t *testing.T) {
	const wantUserID int64 = 7

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok || gotUserID != wantUserID {
			http.Error(w, "wrong userID in context", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mw := middleware.OptionalAuth(mockFetcher{userID: wantUserID})
	handler := mw(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("AuthToken", "valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

// TestCORSMiddleware_Preflight verifies OPTIONS requests short-circuit with 204.
func TestCORSMiddleware_Preflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inner handler should not run for preflight")
	})

	handler := middleware.CORSMiddleware(inner)
	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected origin echoed back, got %q", got)
	}
}
