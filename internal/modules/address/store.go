package address

import (
	"context"

	"github.com/zubacrafts/storefront/internal/store"
)

const Collection = "addresses"

const userIndex = "userId"

// Spec is the collection schema, declared once at startup.
var Spec = store.CollectionSpec{
	Name:       Collection,
	PrimaryKey: "id",
	Indexes: []store.IndexSpec{
		{Name: userIndex, Field: "userId"},
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed address repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) Create(ctx context.Context, a *Address) error {
	id, err := r.db.Add(ctx, Collection, a)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*Address, error) {
	var a Address
	ok, err := r.db.GetByID(ctx, Collection, id, &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

func (r *storeRepo) ListByUser(ctx context.Context, userID string) ([]*Address, error) {
	var addrs []*Address
	if err := r.db.GetByIndex(ctx, Collection, userIndex, userID, &addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (r *storeRepo) Update(ctx context.Context, a *Address) error {
	return r.db.Update(ctx, Collection, a)
}

func (r *storeRepo) Delete(ctx context.Context, id string) error {
	return r.db.Delete(ctx, Collection, id)
}
