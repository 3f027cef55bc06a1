package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/store"
)

var (
	customer = identity.Actor{UserID: "alice"}
	admin    = identity.Actor{UserID: "root", Admin: true}
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db := store.NewMemory()
	ctx := context.Background()
	for _, spec := range Specs {
		require.NoError(t, db.DefineCollection(ctx, spec))
	}
	return NewService(NewStoreRepository(db), nil)
}

func TestProductCRUDIsAdminGated(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, customer, ProductRequest{Name: "Mug", Price: 80, Stock: 10})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	p, err := svc.CreateProduct(ctx, admin, ProductRequest{Name: "Mug", Price: 80, Stock: 10, Category: "drinkware"})
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	_, err = svc.UpdateProduct(ctx, customer, p.ID, ProductRequest{Name: "Mug", Price: 90, Stock: 10})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	err = svc.DeleteProduct(ctx, customer, p.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListProductsByCategory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, admin, ProductRequest{Name: "Mug", Price: 80, Category: "drinkware"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, admin, ProductRequest{Name: "Tee", Price: 150, Category: "apparel"})
	require.NoError(t, err)

	drinkware, err := svc.ListProducts(ctx, "drinkware")
	require.NoError(t, err)
	require.Len(t, drinkware, 1)
	assert.Equal(t, "Mug", drinkware[0].Name)

	all, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDerivedViews(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, admin, ProductRequest{Name: "Chitenge Mug", Price: 80, Stock: 3, Popular: true})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, admin, ProductRequest{Name: "Lusaka Tee", Price: 150, Stock: 50, Featured: true})
	require.NoError(t, err)

	popular, err := svc.PopularProducts(ctx)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, "Chitenge Mug", popular[0].Name)

	featured, err := svc.FeaturedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "Lusaka Tee", featured[0].Name)

	low, err := svc.LowStockProducts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Chitenge Mug", low[0].Name)

	hits, err := svc.SearchProducts(ctx, "lusaka")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Lusaka Tee", hits[0].Name)

	none, err := svc.SearchProducts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDecrementStockClampsAtZero(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductRequest{Name: "Mug", Price: 80, Stock: 3})
	require.NoError(t, err)

	require.NoError(t, svc.DecrementStock(ctx, p.ID, 2))
	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	// delivering more than is on hand empties the shelf, never negative
	require.NoError(t, svc.DecrementStock(ctx, p.ID, 5))
	got, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestDecrementStockUnknownProduct(t *testing.T) {
	svc := newTestService(t)
	err := svc.DecrementStock(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCategorySlugDefaultsFromName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, admin, CategoryRequest{Name: "Event Banners"})
	require.NoError(t, err)
	assert.Equal(t, "event-banners", c.Slug)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}
