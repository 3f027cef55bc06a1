package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zubacrafts/storefront/internal/modules/address"
	"github.com/zubacrafts/storefront/internal/modules/identity"
)

// ActorFunc resolves the acting identity for a request.
type ActorFunc func(ctx context.Context) identity.Actor

// Handler exposes quote HTTP endpoints.
type Handler struct {
	service Service
	actor   ActorFunc
}

// NewHandler creates a new quote handler.
func NewHandler(service Service, actor ActorFunc) *Handler {
	return &Handler{service: service, actor: actor}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/quotes", func(r chi.Router) {
		r.Get("/requests", h.listRequests)
		r.Post("/requests", h.createRequest)
		r.Get("/requests/{id}", h.getRequest)
		r.Get("/requests/{id}/quote", h.getQuoteForRequest)
		r.Post("/requests/{id}/quote", h.createQuote)
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/accept", h.accept)
		r.Post("/{id}/reject", h.reject)
	})
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var in CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := h.service.CreateRequest(r.Context(), h.actor(r.Context()), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, req)
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.GetRequest(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, req)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListRequests(r.Context(), h.actor(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, reqs)
}

func (h *Handler) createQuote(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Items        []Item `json:"items"`
		Notes        string `json:"notes"`
		ValidityDays int    `json:"validityDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q, err := h.service.CreateQuote(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"), in.Items, in.Notes, in.ValidityDays)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, q)
}

func (h *Handler) getQuoteForRequest(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.GetQuoteForRequest(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if q == nil {
		http.Error(w, "no quote for request yet", http.StatusNotFound)
		return
	}
	respond(w, http.StatusOK, q)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.SendQuote(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, q)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ShippingAddress address.Address `json:"shippingAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	o, err := h.service.AcceptQuote(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"), in.ShippingAddress)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.RejectQuote(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"), in.Reason); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrPermissionDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrQuoteNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrQuoteNotAcceptable), errors.Is(err, ErrQuoteExpired):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
