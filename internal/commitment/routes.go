package commitment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/complete", h.Complete)
	r.Post("/{id}/skip", h.Skip)
	r.Post("/{id}/dismiss", h.Dismiss)
	r.Post("/{id}/resume", h.Resume)
	r.Post("/{id}/postpone", h.Postpone)
	r.Get("/{id}/completions", h.Completions)

	return r
}
