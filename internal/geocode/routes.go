package geocode

import (
	"github.com/go-chi/chi/v5"
	"github.com/nanumsa/server/internal/auth"
	"github.com/nanumsa/server/internal/middleware"
)

func SetupRoutes(r chi.Router) {
	// Geocoding spends metered API quota, so it sits behind auth even
	// though the data itself is public.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(auth.DefaultStore))

		r.Get("/address", SearchAddressHandler)
	})
}
