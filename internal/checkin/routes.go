package checkin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Record)
	r.Get("/", h.List)
	r.Get("/today", h.Today)

	return r
}
