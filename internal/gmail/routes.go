package gmail

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes carries the mailbox endpoints; every route here sits behind the
// auth guard.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/consent_prompt_url", h.ConsentPromptURL)
	r.Post("/gmail_oauth_callback", h.OAuthCallback)
	r.Delete("/connection", h.Disconnect)

	r.Get("/", h.ListByLabel)
	r.Get("/threads", h.ListThreads)
	r.Get("/threads/{threadID}", h.ThreadMessages)
	r.Get("/drafts", h.ListDrafts)
	r.Get("/drafts/{draftID}", h.DraftDetails)
	r.Get("/stats", h.LabelStats)
	r.Get("/{messageID}/details", h.MessageDetails)

	r.Post("/send", h.Send)

	r.Patch("/{messageID}/star", h.Star)
	r.Patch("/{messageID}/unstar", h.Unstar)
	r.Patch("/{messageID}/archive", h.Archive)
	r.Patch("/{messageID}/untrash", h.Untrash)

	r.Delete("/{messageID}/trash", h.Trash)
	r.Delete("/trash", h.BatchTrash)

	return r
}
