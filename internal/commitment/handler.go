package commitment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/auth"
	"github.com/saulo-duarte/commitments-api/internal/config"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type actionResponse struct {
	Message    string              `json:"message"`
	Commitment *CommitmentResponse `json:"commitment"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var dto CreateCommitmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Create(r.Context(), userID, dto)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	q := ListQuery{
		Status: Status(query.Get("status")),
		Kind:   Kind(query.Get("type")),
		Sort:   query.Get("sort"),
	}
	if raw := query.Get("overdue"); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "overdue must be true or false", http.StatusBadRequest)
			return
		}
		q.OverdueOnly = overdue
	}

	responses, err := h.service.List(r.Context(), userID, q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, responses)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	var dto UpdateCommitmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Update(r.Context(), id, userID, dto)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	var dto CompletionDTO
	if !decodeOptional(w, r, &dto) {
		return
	}

	resp, err := h.service.Complete(r.Context(), id, userID, dto.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, actionResponse{Message: "Commitment completed", Commitment: resp})
}

func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	var dto CompletionDTO
	if !decodeOptional(w, r, &dto) {
		return
	}

	resp, err := h.service.Skip(r.Context(), id, userID, dto.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, actionResponse{Message: "Commitment skipped for today", Commitment: resp})
}

func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Dismiss(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, actionResponse{Message: "Commitment dismissed", Commitment: resp})
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Resume(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, actionResponse{Message: "Commitment resumed", Commitment: resp})
}

func (h *Handler) Postpone(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	var dto PostponeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Postpone(r.Context(), id, userID, dto.Deadline)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, actionResponse{Message: "Commitment postponed", Commitment: resp})
}

func (h *Handler) Completions(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r)
	if !ok {
		return
	}

	completions, err := h.service.Completions(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if completions == nil {
		completions = []Completion{}
	}

	config.JSON(w, http.StatusOK, completions)
}

func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, err := auth.GetUserClaimsFromContext(r.Context())
	if err != nil {
		config.WithContext(r.Context()).Warn("User not authenticated")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

func requireUserAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// Unknown ids and malformed ids look the same to the caller.
		http.Error(w, ErrNotFound.Error(), http.StatusNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

// decodeOptional accepts an empty body as the zero value.
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrAlreadyCompletedToday),
		errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		config.WithContext(r.Context()).WithError(err).Error("Commitment request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
