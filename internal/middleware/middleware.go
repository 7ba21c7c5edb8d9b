package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nanumsa/server/internal/httputil"
	"github.com/nanumsa/server/internal/utils"
)

// TokenFetcher resolves a bearer token to a user id. Implemented by
// the auth store; kept as an interface so middleware tests need no
// database.
type TokenFetcher interface {
	FindUserIDByToken(token string) (int64, error)
}

// RequireAuth rejects requests without a valid AuthToken header.
func RequireAuth(fetcher TokenFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("AuthToken")
			if token == "" {
				httputil.Fail(w, http.StatusUnauthorized, "AuthToken header missing")
				return
			}

			userID, err := fetcher.FindUserIDByToken(token)
			if err != nil {
				httputil.Fail(w, http.StatusUnauthorized, "invalid authentication credentials")
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the AuthToken header when present so read
// paths can annotate results per user, but lets anonymous requests
// through untouched.
func OptionalAuth(fetcher TokenFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("AuthToken")
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := fetcher.FindUserIDByToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var allowed = map[string]struct{}{
	"http://localhost:5173": {},
	"ws://localhost:3030":   {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it’s on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization, AuthToken")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with a short request id and logs
// method, path, status and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()[:8]
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("[http] %s %s %s status=%d duration=%dms",
			reqID, r.Method, r.URL.Path, rec.status, time.Since(start).Milliseconds())
	})
}
