package cms

import "context"

// Repository defines data access for pages, posts, and comments.
type Repository interface {
	// CreatePage persists a new page.
	CreatePage(ctx context.Context, p *Page) error

	// GetPageByID retrieves a page by id, nil when absent.
	GetPageByID(ctx context.Context, id string) (*Page, error)

	// GetPageBySlug retrieves a page through the slug index, nil when absent.
	GetPageBySlug(ctx context.Context, slug string) (*Page, error)

	// ListPages returns every page.
	ListPages(ctx context.Context) ([]*Page, error)

	// UpdatePage upserts a page.
	UpdatePage(ctx context.Context, p *Page) error

	// DeletePage removes a page; no-op when absent.
	DeletePage(ctx context.Context, id string) error

	// CreatePost persists a new post.
	CreatePost(ctx context.Context, p *Post) error

	// GetPostByID retrieves a post by id, nil when absent.
	GetPostByID(ctx context.Context, id string) (*Post, error)

	// GetPostBySlug retrieves a post through the slug index, nil when absent.
	GetPostBySlug(ctx context.Context, slug string) (*Post, error)

	// ListPosts returns every post.
	ListPosts(ctx context.Context) ([]*Post, error)

	// UpdatePost upserts a post.
	UpdatePost(ctx context.Context, p *Post) error

	// DeletePost removes a post; no-op when absent.
	DeletePost(ctx context.Context, id string) error

	// CreateComment persists a new comment.
	CreateComment(ctx context.Context, c *Comment) error

	// ListCommentsByPost returns a post's comments through the postId index.
	ListCommentsByPost(ctx context.Context, postID string) ([]*Comment, error)

	// DeleteComment removes a comment; no-op when absent.
	DeleteComment(ctx context.Context, id string) error
}
