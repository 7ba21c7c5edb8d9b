package share

import (
	"github.com/go-chi/chi/v5"
	"github.com/nanumsa/server/internal/auth"
	"github.com/nanumsa/server/internal/middleware"
)

func SetupRoutes(r chi.Router) {
	// Map reads work logged-out too; a valid token just adds the
	// starred flag.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(auth.DefaultStore))

		r.Post("/share/list", ListByBoundsHandler)
		r.Get("/share/item/{id}", GetShareHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(auth.DefaultStore))

		r.Post("/share/add", AddShareHandler)
		r.Get("/share/list/my", ListMineHandler)
		r.Get("/share/list/starred", ListStarredHandler)
		r.Post("/share/star", SetStarHandler)
		r.Post("/share/admin", SetSelfAdminHandler)

		r.Patch("/share/status/{id}", PatchStatusHandler)
		r.Patch("/share/name/{id}", PatchNameHandler)
		r.Patch("/share/goods/{id}", PatchGoodsHandler)
		r.Patch("/share/goods/quantity/{id}", PatchGoodsHandler)
		r.Patch("/share/point/{id}", PatchPointHandler)
		r.Patch("/share/contacts/{id}", PatchContactsHandler)
		r.Patch("/share/admins/{id}", PatchAdminsHandler)

		r.Delete("/share/{id}", DeleteShareHandler)
		r.Delete("/shares/{ids}", DeleteSharesHandler)
		r.Post("/share/complexed", ComplexedHandler)
	})
}
