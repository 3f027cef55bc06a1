package audit

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

// Handler exposes the audit log over HTTP.
type Handler struct {
	service Service
	actor   ActorFunc
}

// NewHandler creates a new audit handler.
func NewHandler(service Service, actor ActorFunc) *Handler {
	return &Handler{service: service, actor: actor}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/api/v1/audit", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context(), h.actor(r.Context()), r.URL.Query().Get("entity"))
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(entries)
}
