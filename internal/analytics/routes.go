package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/overview", h.Overview)
	r.Get("/commitments/{id}", h.CommitmentStats)

	return r
}
