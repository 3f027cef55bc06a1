package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/modules/catalog"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/store"
)

type fakeCatalog struct {
	products map[string]*catalog.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	return f.products[id], nil
}

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	db := store.NewMemory()
	ctx := context.Background()
	for _, spec := range Specs {
		require.NoError(t, db.DefineCollection(ctx, spec))
	}
	products := &fakeCatalog{products: map[string]*catalog.Product{
		"mug":    {ID: "mug", Name: "Chitenge Mug", Price: 80},
		"tee":    {ID: "tee", Name: "Lusaka Tee", Price: 150},
		"banner": {ID: "banner", Name: "Event Banner", Price: 600},
	}}
	repo := NewStoreRepository(db)
	return NewService(repo, products, nil, nil), repo
}

var (
	guest = identity.Actor{}
	alice = identity.Actor{UserID: "alice"}
	admin = identity.Actor{UserID: "root", Admin: true}
)

func TestAddItemMergesDuplicateLines(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "mug", Quantity: 1})
	require.NoError(t, err)
	line, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "mug", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)

	items, err := svc.Items(ctx, alice)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestAddItemKeepsDistinctOptionLines(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "tee", Quantity: 1, Options: map[string]string{"size": "M"}})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, alice, AddItemRequest{ProductID: "tee", Quantity: 1, Options: map[string]string{"size": "L"}})
	require.NoError(t, err)

	items, err := svc.Items(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.AddItem(context.Background(), alice, AddItemRequest{ProductID: "ghost", Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnknown)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	line, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "mug", Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, svc.SetQuantity(ctx, alice, line.ID, 0))

	items, err := svc.Items(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMergeGuestIntoUserIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, guest, AddItemRequest{ProductID: "mug", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guest, AddItemRequest{ProductID: "tee", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, alice, AddItemRequest{ProductID: "mug", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.MergeGuestIntoUser(ctx, alice.UserID))
	// the guest store is empty now, so a second merge changes nothing
	require.NoError(t, svc.MergeGuestIntoUser(ctx, alice.UserID))

	items, err := svc.Items(ctx, alice)
	require.NoError(t, err)
	require.Len(t, items, 2)
	byProduct := map[string]int{}
	for _, item := range items {
		byProduct[item.ProductID] = item.Quantity
	}
	assert.Equal(t, 3, byProduct["mug"])
	assert.Equal(t, 1, byProduct["tee"])

	guestItems, err := svc.Items(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, guestItems)
}

func TestApplyPromoCodeValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	yesterday := time.Now().Add(-24 * time.Hour)
	for _, pc := range []PromoCode{
		{Code: "SAVE10", Type: PromoPercentage, Value: 10, IsActive: true},
		{Code: "DEAD", Type: PromoFixed, Value: 20, IsActive: false},
		{Code: "GONE", Type: PromoFixed, Value: 20, IsActive: true, ExpiryDate: &yesterday},
		{Code: "BIGSPEND", Type: PromoFixed, Value: 50, IsActive: true, MinAmount: 500},
	} {
		_, err := svc.CreatePromoCode(ctx, admin, pc)
		require.NoError(t, err)
	}
	_, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "mug", Quantity: 1}) // subtotal 80
	require.NoError(t, err)

	cases := []struct {
		code   string
		reason PromoReason
	}{
		{"NOPE", PromoNotFound},
		{"DEAD", PromoInactive},
		{"GONE", PromoExpired},
		{"BIGSPEND", PromoMinAmount},
	}
	for _, tc := range cases {
		_, err := svc.ApplyPromoCode(ctx, alice, tc.code)
		var pe *PromoError
		require.ErrorAs(t, err, &pe, tc.code)
		assert.Equal(t, tc.reason, pe.Reason)
	}

	// a valid apply, then a rejected one: the applied code is untouched
	_, err = svc.ApplyPromoCode(ctx, alice, "SAVE10")
	require.NoError(t, err)
	_, err = svc.ApplyPromoCode(ctx, alice, "GONE")
	require.Error(t, err)
	applied, err := svc.AppliedPromo(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Equal(t, "SAVE10", applied.Code)
}

func TestTotalsPercentageDiscount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "tee", Quantity: 2}) // 300
	require.NoError(t, err)
	_, err = svc.CreatePromoCode(ctx, admin, PromoCode{Code: "SAVE10", Type: PromoPercentage, Value: 10, IsActive: true})
	require.NoError(t, err)
	_, err = svc.ApplyPromoCode(ctx, alice, "SAVE10")
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 300.0, totals.Subtotal)
	assert.Equal(t, 50.0, totals.Shipping)
	assert.Equal(t, 30.0, totals.Discount)
	assert.Equal(t, 320.0, totals.Total)
}

func TestTotalsDiscountNeverExceedsSubtotal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "mug", Quantity: 1}) // 80
	require.NoError(t, err)
	_, err = svc.CreatePromoCode(ctx, admin, PromoCode{Code: "HUGE", Type: PromoFixed, Value: 500, IsActive: true})
	require.NoError(t, err)
	_, err = svc.ApplyPromoCode(ctx, alice, "HUGE")
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, totals.Subtotal, totals.Discount)
	assert.GreaterOrEqual(t, totals.Total, 0.0)
	assert.Equal(t, 50.0, totals.Total) // shipping still owed
}

func TestTotalsFreeShippingThreshold(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "banner", Quantity: 2}) // 1200
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0.0, totals.Shipping)
	assert.Equal(t, 1200.0, totals.Total)
}

func TestTotalsShippingPromoZeroesShipping(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "tee", Quantity: 1}) // 150
	require.NoError(t, err)
	require.NoError(t, svc.SelectShipping(ctx, alice, "express"))
	_, err = svc.CreatePromoCode(ctx, admin, PromoCode{Code: "FREESHIP", Type: PromoShipping, IsActive: true})
	require.NoError(t, err)
	_, err = svc.ApplyPromoCode(ctx, alice, "FREESHIP")
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0.0, totals.Shipping)
	assert.Equal(t, 0.0, totals.Discount)
	assert.Equal(t, 150.0, totals.Total)
}

func TestSelectShippingRejectsUnknownMethod(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.SelectShipping(context.Background(), alice, "teleport")
	assert.ErrorIs(t, err, ErrUnknownShippingMethod)
}

func TestClearRemovesItemsAndPromo(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, AddItemRequest{ProductID: "tee", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.CreatePromoCode(ctx, admin, PromoCode{Code: "SAVE10", Type: PromoPercentage, Value: 10, IsActive: true})
	require.NoError(t, err)
	_, err = svc.ApplyPromoCode(ctx, alice, "SAVE10")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, alice))

	items, err := svc.Items(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, items)
	applied, err := svc.AppliedPromo(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, applied)
}

func TestPromoAdministrationIsAdminOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePromoCode(ctx, alice, PromoCode{Code: "X", Type: PromoFixed, Value: 1, IsActive: true})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.ListPromoCodes(ctx, alice)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
