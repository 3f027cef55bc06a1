package cms

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

// Handler exposes content HTTP endpoints.
type Handler struct {
	service Service
	actor   ActorFunc
}

// NewHandler creates a new content handler.
func NewHandler(service Service, actor ActorFunc) *Handler {
	return &Handler{service: service, actor: actor}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/pages", func(r chi.Router) {
		r.Get("/", h.listPages)
		r.Post("/", h.createPage)
		r.Get("/{slug}", h.getPage)
		r.Put("/{id}", h.updatePage)
		r.Delete("/{id}", h.deletePage)
	})
	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Get("/", h.listPosts)
		r.Post("/", h.createPost)
		r.Get("/{slug}", h.getPost)
		r.Put("/{id}", h.updatePost)
		r.Delete("/{id}", h.deletePost)
		r.Get("/{id}/comments", h.listComments)
		r.Post("/{id}/comments", h.addComment)
	})
}

func (h *Handler) createPage(w http.ResponseWriter, r *http.Request) {
	var p Page
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.service.CreatePage(r.Context(), h.actor(r.Context()), &p)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListPages(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, pages)
}

func (h *Handler) updatePage(w http.ResponseWriter, r *http.Request) {
	var p Page
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := h.service.UpdatePage(r.Context(), h.actor(r.Context()), &p); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, &p)
}

func (h *Handler) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePage(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var p Post
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.service.CreatePost(r.Context(), h.actor(r.Context()), &p)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, posts)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var p Post
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := h.service.UpdatePost(r.Context(), h.actor(r.Context()), &p); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, &p)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Author  string `json:"author"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := h.service.AddComment(r.Context(), h.actor(r.Context()), chi.URLParam(r, "id"), req.Author, req.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, c)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, comments)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrPermissionDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrPageNotFound), errors.Is(err, ErrPostNotFound):
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
