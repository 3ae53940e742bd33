package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PublicRoutes carries the unauthenticated endpoints (mounted under
// /public).
func PublicRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	return r
}

// Routes carries the endpoints behind the auth guard.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/me", h.Me)
	r.Patch("/logout", h.Logout)
	r.Patch("/password", h.UpdatePassword)
	return r
}
