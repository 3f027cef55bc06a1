package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/chi/v5"
)

// MergeFunc adopts the guest cart into the logged-in user's cart. The login
// flow must always invoke it after a successful login; leaving it unwired is
// a defect, not a configuration choice.
type MergeFunc func(ctx context.Context, userID string) error

// Handler exposes the identity HTTP endpoints.
type Handler struct {
	service   Service
	mergeCart MergeFunc
	jwtKey    []byte
}

// NewHandler creates a new identity handler.
func NewHandler(service Service, mergeCart MergeFunc, jwtKey []byte) *Handler {
	return &Handler{service: service, mergeCart: mergeCart, jwtKey: jwtKey}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respond(w, http.StatusCreated, sanitize(u))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrTwoFactorRequired):
			respond(w, http.StatusUnauthorized, map[string]string{
				"error": "two-factor verification required",
				"code":  "two_factor_required",
			})
		case errors.Is(err, ErrInvalidCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	// adopt any guest cart lines into the user's cart, exactly once per login
	if h.mergeCart != nil {
		if err := h.mergeCart(r.Context(), u.ID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	token, err := h.signToken(u)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  sanitize(u),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Current(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if u == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	respond(w, http.StatusOK, sanitize(u))
}

func (h *Handler) signToken(u *User) (string, error) {
	claims := &jwt.StandardClaims{
		Subject:   u.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtKey)
}

// sanitize strips the stored credential before a user leaves the API.
func sanitize(u *User) *User {
	cp := *u
	cp.Password = ""
	return &cp
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
