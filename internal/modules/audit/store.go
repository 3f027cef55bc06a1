package audit

import (
	"context"

	"github.com/zubacrafts/storefront/internal/store"
)

const (
	Collection = "audit_log"

	entityIndex = "entity"
	adminIndex  = "adminId"
)

// Spec is the collection schema, declared once at startup.
var Spec = store.CollectionSpec{
	Name:       Collection,
	PrimaryKey: "id",
	Indexes: []store.IndexSpec{
		{Name: entityIndex, Field: "entity"},
		{Name: adminIndex, Field: "adminId"},
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed audit repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) CreateEntry(ctx context.Context, e *Entry) error {
	id, err := r.db.Add(ctx, Collection, e)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *storeRepo) ListEntries(ctx context.Context) ([]*Entry, error) {
	var entries []*Entry
	if err := r.db.GetAll(ctx, Collection, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *storeRepo) ListEntriesByEntity(ctx context.Context, entity string) ([]*Entry, error) {
	var entries []*Entry
	if err := r.db.GetByIndex(ctx, Collection, entityIndex, entity, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
