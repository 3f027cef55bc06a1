package catalog

import (
	"context"

	"github.com/zubacrafts/storefront/internal/store"
)

const (
	ProductCollection  = "products"
	CategoryCollection = "categories"

	categoryIndex = "category"
)

// Specs are the collection schemas, declared once at startup.
var Specs = []store.CollectionSpec{
	{
		Name:       ProductCollection,
		PrimaryKey: "id",
		Indexes: []store.IndexSpec{
			{Name: categoryIndex, Field: "category"},
		},
	},
	{
		Name:       CategoryCollection,
		PrimaryKey: "id",
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed catalog repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) CreateProduct(ctx context.Context, p *Product) error {
	id, err := r.db.Add(ctx, ProductCollection, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *storeRepo) GetProductByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	ok, err := r.db.GetByID(ctx, ProductCollection, id, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (r *storeRepo) ListProducts(ctx context.Context) ([]*Product, error) {
	var products []*Product
	if err := r.db.GetAll(ctx, ProductCollection, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *storeRepo) ListProductsByCategory(ctx context.Context, category string) ([]*Product, error) {
	var products []*Product
	if err := r.db.GetByIndex(ctx, ProductCollection, categoryIndex, category, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *storeRepo) UpdateProduct(ctx context.Context, p *Product) error {
	return r.db.Update(ctx, ProductCollection, p)
}

func (r *storeRepo) DeleteProduct(ctx context.Context, id string) error {
	return r.db.Delete(ctx, ProductCollection, id)
}

func (r *storeRepo) CreateCategory(ctx context.Context, c *Category) error {
	id, err := r.db.Add(ctx, CategoryCollection, c)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *storeRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	if err := r.db.GetAll(ctx, CategoryCollection, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *storeRepo) DeleteCategory(ctx context.Context, id string) error {
	return r.db.Delete(ctx, CategoryCollection, id)
}
