package verify

import "github.com/go-chi/chi/v5"

func SetupRoutes(r chi.Router) {
	// All three flows run before the caller has a session, so none of
	// them are behind auth.
	r.Post("/password/change", RequestPasswordResetHandler)
	r.Post("/verify/email/token", RequestEmailVerifyHandler)
	r.Post("/verify/email", ConfirmEmailVerifyHandler)
}
