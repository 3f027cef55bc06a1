package cms

import (
	"context"

	"github.com/zubacrafts/storefront/internal/store"
)

const (
	PageCollection    = "pages"
	PostCollection    = "posts"
	CommentCollection = "comments"

	slugIndex = "slug"
	postIndex = "postId"
)

// Specs are the collection schemas, declared once at startup.
var Specs = []store.CollectionSpec{
	{
		Name:       PageCollection,
		PrimaryKey: "id",
		Indexes:    []store.IndexSpec{{Name: slugIndex, Field: "slug"}},
	},
	{
		Name:       PostCollection,
		PrimaryKey: "id",
		Indexes:    []store.IndexSpec{{Name: slugIndex, Field: "slug"}},
	},
	{
		Name:       CommentCollection,
		PrimaryKey: "id",
		Indexes:    []store.IndexSpec{{Name: postIndex, Field: "postId"}},
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed content repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) CreatePage(ctx context.Context, p *Page) error {
	id, err := r.db.Add(ctx, PageCollection, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *storeRepo) GetPageByID(ctx context.Context, id string) (*Page, error) {
	var p Page
	ok, err := r.db.GetByID(ctx, PageCollection, id, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (r *storeRepo) GetPageBySlug(ctx context.Context, slug string) (*Page, error) {
	var pages []*Page
	if err := r.db.GetByIndex(ctx, PageCollection, slugIndex, slug, &pages); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return pages[0], nil
}

func (r *storeRepo) ListPages(ctx context.Context) ([]*Page, error) {
	var pages []*Page
	if err := r.db.GetAll(ctx, PageCollection, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *storeRepo) UpdatePage(ctx context.Context, p *Page) error {
	return r.db.Update(ctx, PageCollection, p)
}

func (r *storeRepo) DeletePage(ctx context.Context, id string) error {
	return r.db.Delete(ctx, PageCollection, id)
}

func (r *storeRepo) CreatePost(ctx context.Context, p *Post) error {
	id, err := r.db.Add(ctx, PostCollection, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *storeRepo) GetPostByID(ctx context.Context, id string) (*Post, error) {
	var p Post
	ok, err := r.db.GetByID(ctx, PostCollection, id, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (r *storeRepo) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	var posts []*Post
	if err := r.db.GetByIndex(ctx, PostCollection, slugIndex, slug, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return posts[0], nil
}

func (r *storeRepo) ListPosts(ctx context.Context) ([]*Post, error) {
	var posts []*Post
	if err := r.db.GetAll(ctx, PostCollection, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *storeRepo) UpdatePost(ctx context.Context, p *Post) error {
	return r.db.Update(ctx, PostCollection, p)
}

func (r *storeRepo) DeletePost(ctx context.Context, id string) error {
	return r.db.Delete(ctx, PostCollection, id)
}

func (r *storeRepo) CreateComment(ctx context.Context, c *Comment) error {
	id, err := r.db.Add(ctx, CommentCollection, c)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *storeRepo) ListCommentsByPost(ctx context.Context, postID string) ([]*Comment, error) {
	var comments []*Comment
	if err := r.db.GetByIndex(ctx, CommentCollection, postIndex, postID, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *storeRepo) DeleteComment(ctx context.Context, id string) error {
	return r.db.Delete(ctx, CommentCollection, id)
}
