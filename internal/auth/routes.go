package auth

import (
	"github.com/go-chi/chi/v5"
	"github.com/nanumsa/server/internal/middleware"
)

func SetupRoutes(r chi.Router) {
	r.Post("/login/email", LoginWithEmailHandler)
	r.Post("/login/social", LoginWithSocialHandler)
	r.Post("/login/token", LoginWithTokenHandler)
	r.Post("/logout", LogoutHandler)
	r.Post("/user/new", RegisterHandler)
	r.Post("/user/new/social", RegisterSocialHandler)
	r.Patch("/user/password/token", ResetPasswordWithTokenHandler)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(DefaultStore))

		pr.Patch("/user/nickname", ChangeNicknameHandler)
		pr.Patch("/user/password", ChangePasswordHandler)
		pr.Post("/user/password", VerifyPasswordHandler)
		pr.Patch("/user/contacts", ChangeContactsHandler)
		pr.Get("/user/contacts", GetContactsHandler)
		pr.Get("/user/tags/{tags}", GetUsersByTagsHandler)
		pr.Get("/admin/info/tag", AdminInfoByTagsHandler)
		pr.Delete("/user", DeleteUserHandler)
	})
}
