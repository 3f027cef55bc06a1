package dashboard

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

// Handler exposes dashboard HTTP endpoints.
type Handler struct {
	service Service
	actor   ActorFunc
}

// NewHandler creates a new dashboard handler.
func NewHandler(service Service, actor ActorFunc) *Handler {
	return &Handler{service: service, actor: actor}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Get("/", h.stats)
		r.Get("/export", h.export)
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), h.actor(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	csv, err := h.service.ExportCSV(r.Context(), h.actor(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrPermissionDenied) {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
