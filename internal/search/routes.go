package search

import (
	"github.com/go-chi/chi/v5"
	"github.com/nanumsa/server/internal/auth"
	"github.com/nanumsa/server/internal/middleware"
)

func SetupRoutes(r chi.Router) {
	// Keyword search itself works logged-out.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(auth.DefaultStore))

		r.Get("/search/keywords/{keyword}", KeywordPinsHandler)
		r.Get("/search/results/{keyword}", KeywordResultsHandler)
	})

	// History is per-account.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(auth.DefaultStore))

		r.Post("/search/recent", RecordKeywordHandler)
		r.Get("/search/recent", RecentKeywordsHandler)
		r.Delete("/search/recent/{id}", DeleteKeywordHandler)
		r.Delete("/search/recent_all", DeleteAllKeywordsHandler)
	})
}
