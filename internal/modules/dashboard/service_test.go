package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/modules/catalog"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/modules/order"
)

var admin = identity.Actor{UserID: "root", Admin: true}

type fakeOrders []*order.Order

func (f fakeOrders) ListOrders(context.Context) ([]*order.Order, error) { return f, nil }

type fakeProducts []*catalog.Product

func (f fakeProducts) ListProducts(context.Context) ([]*catalog.Product, error) { return f, nil }

type fakeUsers []*identity.User

func (f fakeUsers) ListUsers(context.Context) ([]*identity.User, error) { return f, nil }

func newTestService() Service {
	orders := fakeOrders{
		{ID: "o1", Status: order.StatusPending, Total: 100,
			Items: []order.Item{{ProductID: "p1", Name: "Mugs, Large", Quantity: 4}}},
		{ID: "o2", Status: order.StatusShipped, Total: 350,
			Items: []order.Item{{ProductID: "p2", Name: "Lusaka Tee", Quantity: 1}}},
		{ID: "o3", Status: order.StatusDelivered, Total: 600,
			Items: []order.Item{{ProductID: "p1", Name: "Mugs, Large", Quantity: 2}}},
	}
	products := fakeProducts{{ID: "p1", Name: "Mugs, Large"}}
	users := fakeUsers{{ID: "u1"}, {ID: "u2"}}
	return NewService(orders, products, users)
}

func TestStatsAggregates(t *testing.T) {
	svc := newTestService()
	stats, err := svc.Stats(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.Products)
	assert.Equal(t, 3, stats.Orders)
	// revenue counts shipped and delivered orders only
	assert.Equal(t, 950.0, stats.Revenue)
	assert.Equal(t, 1, stats.OrdersByStatus["pending"])
	assert.Equal(t, 1, stats.OrdersByStatus["shipped"])
	assert.Equal(t, 1, stats.OrdersByStatus["delivered"])

	require.Len(t, stats.TopProducts, 2)
	assert.Equal(t, "Mugs, Large", stats.TopProducts[0].Name)
	assert.Equal(t, 6, stats.TopProducts[0].Quantity)
	assert.Equal(t, "Lusaka Tee", stats.TopProducts[1].Name)
}

func TestStatsIsAdminOnly(t *testing.T) {
	svc := newTestService()
	_, err := svc.Stats(context.Background(), identity.Actor{UserID: "alice"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.ExportCSV(context.Background(), identity.Actor{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestExportCSVFormat(t *testing.T) {
	svc := newTestService()
	csv, err := svc.ExportCSV(context.Background(), admin)
	require.NoError(t, err)

	want := "Metric,Value\n" +
		"Total Users,2\n" +
		"Total Products,1\n" +
		"Total Orders,3\n" +
		"Total Revenue,950.00\n" +
		"Orders pending,1\n" +
		"Orders processing,0\n" +
		"Orders shipped,1\n" +
		"Orders delivered,1\n" +
		"Orders cancelled,0\n" +
		"Orders refunded,0\n" +
		"\"Top Product Mugs, Large\",6\n" +
		"Top Product Lusaka Tee,1\n"
	assert.Equal(t, want, csv)
}
