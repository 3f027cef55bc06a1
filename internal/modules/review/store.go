package review

import (
	"context"

	"github.com/zubacrafts/storefront/internal/store"
)

const (
	Collection = "reviews"

	productIndex = "productId"
	userIndex    = "userId"
)

// Spec is the collection schema, declared once at startup.
var Spec = store.CollectionSpec{
	Name:       Collection,
	PrimaryKey: "id",
	Indexes: []store.IndexSpec{
		{Name: productIndex, Field: "productId"},
		{Name: userIndex, Field: "userId"},
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed review repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) CreateReview(ctx context.Context, rev *Review) error {
	id, err := r.db.Add(ctx, Collection, rev)
	if err != nil {
		return err
	}
	rev.ID = id
	return nil
}

func (r *storeRepo) GetReviewByID(ctx context.Context, id string) (*Review, error) {
	var rev Review
	ok, err := r.db.GetByID(ctx, Collection, id, &rev)
	if err != nil || !ok {
		return nil, err
	}
	return &rev, nil
}

func (r *storeRepo) ListReviewsByProduct(ctx context.Context, productID string) ([]*Review, error) {
	var revs []*Review
	if err := r.db.GetByIndex(ctx, Collection, productIndex, productID, &revs); err != nil {
		return nil, err
	}
	return revs, nil
}

func (r *storeRepo) ListReviewsByUser(ctx context.Context, userID string) ([]*Review, error) {
	var revs []*Review
	if err := r.db.GetByIndex(ctx, Collection, userIndex, userID, &revs); err != nil {
		return nil, err
	}
	return revs, nil
}

func (r *storeRepo) UpdateReview(ctx context.Context, rev *Review) error {
	return r.db.Update(ctx, Collection, rev)
}

func (r *storeRepo) DeleteReview(ctx context.Context, id string) error {
	return r.db.Delete(ctx, Collection, id)
}
