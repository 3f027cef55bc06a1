package catalog

import "context"

// Repository defines data access for products and categories.
type Repository interface {
	// CreateProduct persists a new product.
	CreateProduct(ctx context.Context, p *Product) error

	// GetProductByID retrieves a product by id, nil when absent.
	GetProductByID(ctx context.Context, id string) (*Product, error)

	// ListProducts returns every product.
	ListProducts(ctx context.Context) ([]*Product, error)

	// ListProductsByCategory returns products through the category index.
	ListProductsByCategory(ctx context.Context, category string) ([]*Product, error)

	// UpdateProduct upserts a product.
	UpdateProduct(ctx context.Context, p *Product) error

	// DeleteProduct removes a product; deleting a missing id is not an error.
	DeleteProduct(ctx context.Context, id string) error

	// CreateCategory persists a new category.
	CreateCategory(ctx context.Context, c *Category) error

	// ListCategories returns every category.
	ListCategories(ctx context.Context) ([]*Category, error)

	// DeleteCategory removes a category by id.
	DeleteCategory(ctx context.Context, id string) error
}
