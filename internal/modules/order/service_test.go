package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/modules/address"
	"github.com/zubacrafts/storefront/internal/modules/cart"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/store"
)

var (
	alice = identity.Actor{UserID: "alice"}
	admin = identity.Actor{UserID: "root", Admin: true}
)

type fakeCart struct {
	items   []*cart.Item
	totals  cart.Totals
	promo   *cart.PromoCode
	cleared bool
}

func (f *fakeCart) Items(context.Context, identity.Actor) ([]*cart.Item, error) {
	return f.items, nil
}

func (f *fakeCart) Totals(context.Context, identity.Actor) (*cart.Totals, error) {
	t := f.totals
	return &t, nil
}

func (f *fakeCart) AppliedPromo(context.Context, identity.Actor) (*cart.PromoCode, error) {
	return f.promo, nil
}

func (f *fakeCart) Clear(context.Context, identity.Actor) error {
	f.cleared = true
	f.items = nil
	return nil
}

type fakeStock struct {
	decrements map[string]int
}

func (f *fakeStock) DecrementStock(_ context.Context, productID string, qty int) error {
	if f.decrements == nil {
		f.decrements = map[string]int{}
	}
	f.decrements[productID] += qty
	return nil
}

func newTestService(t *testing.T, carts *fakeCart) (Service, Repository, *fakeStock) {
	t.Helper()
	db := store.NewMemory()
	ctx := context.Background()
	for _, spec := range Specs {
		require.NoError(t, db.DefineCollection(ctx, spec))
	}
	repo := NewStoreRepository(db)
	stock := &fakeStock{}
	return NewService(repo, carts, stock, nil, nil, nil), repo, stock
}

func fullCart() *fakeCart {
	return &fakeCart{
		items: []*cart.Item{
			{ID: "l1", UserID: "alice", ProductID: "mug", Name: "Chitenge Mug", Price: 80, Quantity: 2},
			{ID: "l2", UserID: "alice", ProductID: "tee", Name: "Lusaka Tee", Price: 150, Quantity: 1},
		},
		totals: cart.Totals{Subtotal: 310, Shipping: 50, Discount: 31, Total: 329},
		promo:  &cart.PromoCode{Code: "SAVE10", Type: cart.PromoPercentage, Value: 10, IsActive: true},
	}
}

func checkout() CreateOrderRequest {
	return CreateOrderRequest{
		ShippingAddress: address.Address{FullName: "Alice", Line1: "12 Cairo Rd", City: "Lusaka", Country: "ZM"},
		PaymentMethod:   "cod",
	}
}

func TestCreateOrderSnapshotsCart(t *testing.T) {
	carts := fullCart()
	svc, repo, _ := newTestService(t, carts)
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "alice", o.UserID)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 80.0, o.Items[0].PriceAtPurchase)
	assert.Equal(t, 329.0, o.Total)
	assert.Equal(t, "SAVE10", o.PromoCode)
	assert.True(t, carts.cleared)

	history, err := repo.ListHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Seq)
	assert.Equal(t, StatusPending, history[0].Status)
	assert.Equal(t, "created", history[0].Note)
}

func TestCreateOrderEmptyCartWritesNothing(t *testing.T) {
	svc, repo, _ := newTestService(t, &fakeCart{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, alice, checkout())
	assert.ErrorIs(t, err, ErrEmptyCart)

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderRequiresAuthentication(t *testing.T) {
	svc, _, _ := newTestService(t, fullCart())
	_, err := svc.CreateOrder(context.Background(), identity.Actor{}, checkout())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUpdateStatusFollowsStateMachine(t *testing.T) {
	svc, _, _ := newTestService(t, fullCart())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)

	// pending cannot jump straight to delivered
	_, err = svc.UpdateStatus(ctx, admin, o.ID, StatusDelivered, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, next := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
		o, err = svc.UpdateStatus(ctx, admin, o.ID, next, "")
		require.NoError(t, err)
		assert.Equal(t, next, o.Status)
	}

	// delivered is only refundable
	_, err = svc.UpdateStatus(ctx, admin, o.ID, StatusShipped, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	o, err = svc.UpdateStatus(ctx, admin, o.ID, StatusRefunded, "")
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, o.Status)
}

func TestUpdateStatusIsAdminOnly(t *testing.T) {
	svc, _, _ := newTestService(t, fullCart())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, alice, o.ID, StatusProcessing, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestShippedSynthesizesTracking(t *testing.T) {
	svc, _, _ := newTestService(t, fullCart())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, admin, o.ID, StatusProcessing, "")
	require.NoError(t, err)
	o, err = svc.UpdateStatus(ctx, admin, o.ID, StatusShipped, "")
	require.NoError(t, err)

	require.NotNil(t, o.Tracking)
	assert.Equal(t, "Zampost Express", o.Tracking.Carrier)
	assert.Regexp(t, `^ZP-[0-9A-F]{8}$`, o.Tracking.Number)
}

func TestDeliveredDecrementsStockPerLine(t *testing.T) {
	svc, _, stock := newTestService(t, fullCart())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)
	for _, next := range []Status{StatusProcessing, StatusShipped} {
		_, err = svc.UpdateStatus(ctx, admin, o.ID, next, "")
		require.NoError(t, err)
	}
	assert.Empty(t, stock.decrements)

	_, err = svc.UpdateStatus(ctx, admin, o.ID, StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stock.decrements["mug"])
	assert.Equal(t, 1, stock.decrements["tee"])
}

func TestCancelOnlyFromEarlyStates(t *testing.T) {
	svc, _, _ := newTestService(t, fullCart())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)
	require.NoError(t, svc.CancelOrder(ctx, alice, o.ID, "changed my mind"))
	got, err := svc.GetOrder(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestCancelAfterShipmentLeavesOrderUntouched(t *testing.T) {
	svc, _, _ := newTestService(t, fullCart())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)
	for _, next := range []Status{StatusProcessing, StatusShipped} {
		_, err = svc.UpdateStatus(ctx, admin, o.ID, next, "")
		require.NoError(t, err)
	}

	err = svc.CancelOrder(ctx, alice, o.ID, "too late")
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
	got, err := svc.GetOrder(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got.Status)
}

func TestHistorySequenceGrowsWithTransitions(t *testing.T) {
	svc, _, _ := newTestService(t, fullCart())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)
	for _, next := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
		_, err = svc.UpdateStatus(ctx, admin, o.ID, next, "")
		require.NoError(t, err)
	}

	history, err := svc.StatusHistory(ctx, alice, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, e := range history {
		assert.Equal(t, i+1, e.Seq)
	}
	assert.Equal(t, StatusDelivered, history[3].Status)
}

func TestOrdersAreInvisibleToStrangers(t *testing.T) {
	svc, _, _ := newTestService(t, fullCart())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, alice, checkout())
	require.NoError(t, err)

	bob := identity.Actor{UserID: "bob"}
	_, err = svc.GetOrder(ctx, bob, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = svc.ListAllOrders(ctx, bob, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateFromQuoteUsesProvidedPricing(t *testing.T) {
	svc, repo, _ := newTestService(t, &fakeCart{})
	ctx := context.Background()

	items := []Item{
		{ProductID: "banner", Name: "Event Banner", PriceAtPurchase: 600, Quantity: 3},
	}
	o, err := svc.CreateFromQuote(ctx, alice, items, address.Address{FullName: "Alice", Line1: "12 Cairo Rd", City: "Lusaka", Country: "ZM"}, "created from quote q1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 1800.0, o.Total)
	assert.Equal(t, "quote", o.Payment.Method)

	history, err := repo.ListHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "created from quote q1", history[0].Note)
}
