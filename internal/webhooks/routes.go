package webhooks

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes carries the push notification endpoint. It is mounted publicly;
// the subscription authenticates at the infrastructure level.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/gmail", h.Receive)
	return r
}
