package review

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zubacrafts/storefront/internal/modules/identity"
)

// ActorFunc resolves the acting identity for a request.
type ActorFunc func(ctx context.Context) identity.Actor

// Handler exposes review HTTP endpoints.
type Handler struct {
	service Service
	actor   ActorFunc
}

// NewHandler creates a new review handler.
func NewHandler(service Service, actor ActorFunc) *Handler {
	return &Handler{service: service, actor: actor}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products/{productId}/reviews", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.add)
		r.Get("/summary", h.summary)
	})
	r.Delete("/api/v1/reviews/{id}", h.delete)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating  int    `json:"rating"`
		Title   string `json:"title"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rev, err := h.service.Add(r.Context(), h.actor(r.Context()), chi.URLParam(r, "productId"), req.Rating, req.Title, req.Comment)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, rev)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	revs, err := h.service.ListByProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, revs)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summarize(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		respond(w, http.StatusUnprocessableEntity, ve)
	case errors.Is(err, ErrNotAuthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrReviewNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
