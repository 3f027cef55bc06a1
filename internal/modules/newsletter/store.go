package newsletter

import (
	"context"

	"github.com/zubacrafts/storefront/internal/store"
)

const (
	Collection = "newsletter_subscriptions"

	emailIndex = "email"
)

// Spec is the collection schema, declared once at startup.
var Spec = store.CollectionSpec{
	Name:       Collection,
	PrimaryKey: "id",
	Indexes: []store.IndexSpec{
		{Name: emailIndex, Field: "email"},
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed newsletter repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) CreateSubscription(ctx context.Context, s *Subscription) error {
	id, err := r.db.Add(ctx, Collection, s)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func (r *storeRepo) GetByEmail(ctx context.Context, email string) (*Subscription, error) {
	var subs []*Subscription
	if err := r.db.GetByIndex(ctx, Collection, emailIndex, email, &subs); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return subs[0], nil
}

func (r *storeRepo) ListSubscriptions(ctx context.Context) ([]*Subscription, error) {
	var subs []*Subscription
	if err := r.db.GetAll(ctx, Collection, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *storeRepo) DeleteSubscription(ctx context.Context, id string) error {
	return r.db.Delete(ctx, Collection, id)
}
