package address

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

// Handler exposes address book HTTP endpoints.
type Handler struct {
	service Service
	actor   ActorFunc
}

// NewHandler creates a new address handler.
func NewHandler(service Service, actor ActorFunc) *Handler {
	return &Handler{service: service, actor: actor}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/addresses", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.add)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/default", h.setDefault)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.service.List(r.Context(), h.actor(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, addrs)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := h.service.Add(r.Context(), h.actor(r.Context()), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, a)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := h.service.Update(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, a)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDefault(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SetDefault(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrAddressNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
