package cms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/modules/identity"
)

var (
	// ErrNotAuthenticated is returned when a guest tries to comment.
	ErrNotAuthenticated = errors.New("cms: not authenticated")

	// ErrPermissionDenied guards content writes.
	ErrPermissionDenied = errors.New("cms: permission denied")

	// ErrPageNotFound / ErrPostNotFound are returned for missing content.
	ErrPageNotFound = errors.New("cms: page not found")
	ErrPostNotFound = errors.New("cms: post not found")
)

// Service manages pages, blog posts, and post comments. Content writes are
// admin only; reading and commenting are open to customers.
type Service interface {
	// CreatePage creates a page; the slug defaults to a slugified title.
	CreatePage(ctx context.Context, actor identity.Actor, p *Page) (*Page, error)

	// GetPage resolves a page by slug.
	GetPage(ctx context.Context, slug string) (*Page, error)

	// ListPages returns every page.
	ListPages(ctx context.Context) ([]*Page, error)

	// UpdatePage upserts page content. Admin only.
	UpdatePage(ctx context.Context, actor identity.Actor, p *Page) error

	// DeletePage removes a page. Admin only; idempotent.
	DeletePage(ctx context.Context, actor identity.Actor, id string) error

	// CreatePost creates a blog post. Admin only.
	CreatePost(ctx context.Context, actor identity.Actor, p *Post) (*Post, error)

	// GetPost resolves a post by slug.
	GetPost(ctx context.Context, slug string) (*Post, error)

	// ListPosts returns every post.
	ListPosts(ctx context.Context) ([]*Post, error)

	// UpdatePost upserts a post. Admin only.
	UpdatePost(ctx context.Context, actor identity.Actor, p *Post) error

	// DeletePost removes a post and each of its comments. The gateway has
	// no cascading delete, so the comments are removed one by one first.
	DeletePost(ctx context.Context, actor identity.Actor, id string) error

	// AddComment records a reader's comment on a post.
	AddComment(ctx context.Context, actor identity.Actor, postID, author, content string) (*Comment, error)

	// ListComments returns a post's comments.
	ListComments(ctx context.Context, postID string) ([]*Comment, error)
}

type service struct {
	repo Repository
	log  *logrus.Entry
}

// NewService creates a new content service.
func NewService(repo Repository, log *logrus.Entry) Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &service{repo: repo, log: log}
}

// ── pages ────────────────────────────────────────────────────────────────────

func (s *service) CreatePage(ctx context.Context, actor identity.Actor, p *Page) (*Page, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if p.Title == "" {
		return nil, fmt.Errorf("cms: page title is required")
	}
	if p.Slug == "" {
		p.Slug = slugify(p.Title)
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.CreatePage(ctx, p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return p, nil
}

func (s *service) GetPage(ctx context.Context, slug string) (*Page, error) {
	p, err := s.repo.GetPageBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPageNotFound
	}
	return p, nil
}

func (s *service) ListPages(ctx context.Context) ([]*Page, error) {
	return s.repo.ListPages(ctx)
}

func (s *service) UpdatePage(ctx context.Context, actor identity.Actor, p *Page) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}
	existing, err := s.repo.GetPageByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPageNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	return s.repo.UpdatePage(ctx, p)
}

func (s *service) DeletePage(ctx context.Context, actor identity.Actor, id string) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}
	return s.repo.DeletePage(ctx, id)
}

// ── posts & comments ─────────────────────────────────────────────────────────

func (s *service) CreatePost(ctx context.Context, actor identity.Actor, p *Post) (*Post, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if p.Title == "" {
		return nil, fmt.Errorf("cms: post title is required")
	}
	if p.Slug == "" {
		p.Slug = slugify(p.Title)
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func (s *service) GetPost(ctx context.Context, slug string) (*Post, error) {
	p, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	return p, nil
}

func (s *service) ListPosts(ctx context.Context) ([]*Post, error) {
	return s.repo.ListPosts(ctx)
}

func (s *service) UpdatePost(ctx context.Context, actor identity.Actor, p *Post) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}
	existing, err := s.repo.GetPostByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPostNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	return s.repo.UpdatePost(ctx, p)
}

func (s *service) DeletePost(ctx context.Context, actor identity.Actor, id string) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}
	comments, err := s.repo.ListCommentsByPost(ctx, id)
	if err != nil {
		return fmt.Errorf("list comments for cascade: %w", err)
	}
	for _, c := range comments {
		if err := s.repo.DeleteComment(ctx, c.ID); err != nil {
			s.log.WithFields(logrus.Fields{"op": "deletePost", "postId": id, "commentId": c.ID, "error": err}).
				Warn("could not delete comment")
		}
	}
	return s.repo.DeletePost(ctx, id)
}

func (s *service) AddComment(ctx context.Context, actor identity.Actor, postID, author, content string) (*Comment, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("cms: comment content is required")
	}
	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	c := &Comment{
		PostID:    postID,
		UserID:    actor.UserID,
		Author:    author,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

func (s *service) ListComments(ctx context.Context, postID string) ([]*Comment, error) {
	return s.repo.ListCommentsByPost(ctx, postID)
}

// slugify lowercases and replaces runs of non-alphanumerics with hyphens.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
