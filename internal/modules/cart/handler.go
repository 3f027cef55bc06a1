package cart

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

// Handler exposes cart HTTP endpoints.
type Handler struct {
	service Service
	actor   ActorFunc
}

// NewHandler creates a new cart handler.
func NewHandler(service Service, actor ActorFunc) *Handler {
	return &Handler{service: service, actor: actor}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clear)
		r.Post("/items", h.addItem)
		r.Put("/items/{id}", h.setQuantity)
		r.Delete("/items/{id}", h.removeItem)
		r.Post("/promo", h.applyPromo)
		r.Delete("/promo", h.removePromo)
		r.Get("/shipping", h.shippingMethods)
		r.Post("/shipping", h.selectShipping)
	})
	r.Route("/api/v1/promo-codes", func(r chi.Router) {
		r.Get("/", h.listPromoCodes)
		r.Post("/", h.createPromoCode)
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r.Context())
	items, err := h.service.Items(r.Context(), actor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	totals, err := h.service.Totals(r.Context(), actor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, map[string]any{"items": items, "totals": totals})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := h.service.AddItem(r.Context(), h.actor(r.Context()), req)
	if err != nil {
		if errors.Is(err, ErrProductUnknown) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.SetQuantity(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"), req.Quantity); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveItem(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), h.actor(r.Context())); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyPromo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pc, err := h.service.ApplyPromoCode(r.Context(), h.actor(r.Context()), req.Code)
	if err != nil {
		var promoErr *PromoError
		if errors.As(err, &promoErr) {
			respond(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  promoErr.Error(),
				"reason": promoErr.Reason,
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, pc)
}

func (h *Handler) removePromo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemovePromoCode(r.Context(), h.actor(r.Context())); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) shippingMethods(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, ShippingMethods)
}

func (h *Handler) selectShipping(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MethodID string `json:"methodId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.SelectShipping(r.Context(), h.actor(r.Context()), req.MethodID); err != nil {
		if errors.Is(err, ErrUnknownShippingMethod) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPromoCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.ListPromoCodes(r.Context(), h.actor(r.Context()))
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, codes)
}

func (h *Handler) createPromoCode(w http.ResponseWriter, r *http.Request) {
	var req PromoCode
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pc, err := h.service.CreatePromoCode(r.Context(), h.actor(r.Context()), req)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respond(w, http.StatusCreated, pc)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
