package api

import (
	"net/http"

	"formcraft/internal/auth"
	"formcraft/internal/service"
	"formcraft/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dependencies struct {
	Forms  *service.FormService
	Public *service.PublicService
	Users  *service.UserService
	JWT    *auth.JWTConfig
	Hub    *ws.Hub
	Log    *zap.Logger

	// SampleSize is the completion sample size used when a request does not
	// ask for one. Zero falls back to the aggregator default.
	SampleSize int
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(d.Log))

	// Account endpoints
	r.Post("/register", d.register)
	r.Post("/login", d.login)
	r.Get("/verify-email", d.verifyEmail)

	// Public form endpoints, no auth
	r.Get("/public/forms/{slug}", d.publicForm)
	r.Post("/public/forms/{slug}/submit", d.publicSubmit)

	// Owner endpoints
	r.Group(func(r chi.Router) {
		r.Use(d.JWT.Middleware)

		r.Get("/user", d.currentUser)
		r.Put("/user/profile", d.updateProfile)

		r.Post("/billing/upgrade", d.createUpgrade)
		r.Post("/billing/confirm", d.confirmUpgrade)

		r.Post("/forms", d.createForm)
		r.Get("/forms", d.listForms)
		r.Get("/forms/{id}", d.getForm)
		r.Put("/forms/{id}", d.updateForm)
		r.Delete("/forms/{id}", d.deleteForm)
		r.Get("/forms/{id}/analytics", d.formAnalytics)
		r.Get("/forms/{id}/events", d.formEvents)
	})

	return r
}
