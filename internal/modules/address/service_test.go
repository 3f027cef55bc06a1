package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/store"
)

var alice = identity.Actor{UserID: "alice"}

func newTestService(t *testing.T) Service {
	t.Helper()
	db := store.NewMemory()
	require.NoError(t, db.DefineCollection(context.Background(), Spec))
	return NewService(NewStoreRepository(db), nil)
}

func shippingReq(name string, isDefault bool) Request {
	return Request{
		Type:      TypeShipping,
		IsDefault: isDefault,
		FullName:  name,
		Line1:     "12 Cairo Rd",
		City:      "Lusaka",
		Country:   "ZM",
	}
}

// defaults counts addresses of the type with the default flag set.
func defaults(t *testing.T, svc Service, typ Type) int {
	t.Helper()
	addrs, err := svc.List(context.Background(), alice)
	require.NoError(t, err)
	n := 0
	for _, a := range addrs {
		if a.Type == typ && a.IsDefault {
			n++
		}
	}
	return n
}

func TestGuestHasNoAddressBook(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Add(context.Background(), identity.Actor{}, shippingReq("G", true))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAddSecondDefaultDemotesFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, alice, shippingReq("First", true))
	require.NoError(t, err)
	second, err := svc.Add(ctx, alice, shippingReq("Second", true))
	require.NoError(t, err)

	assert.Equal(t, 1, defaults(t, svc, TypeShipping))
	def, err := svc.Default(ctx, alice, TypeShipping)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)
	assert.NotEqual(t, first.ID, def.ID)
}

func TestDefaultsAreIndependentPerType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, alice, shippingReq("Ship", true))
	require.NoError(t, err)
	billing := shippingReq("Bill", true)
	billing.Type = TypeBilling
	_, err = svc.Add(ctx, alice, billing)
	require.NoError(t, err)

	assert.Equal(t, 1, defaults(t, svc, TypeShipping))
	assert.Equal(t, 1, defaults(t, svc, TypeBilling))
}

func TestSetDefaultSwitches(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Add(ctx, alice, shippingReq("A", true))
	require.NoError(t, err)
	b, err := svc.Add(ctx, alice, shippingReq("B", false))
	require.NoError(t, err)

	require.NoError(t, svc.SetDefault(ctx, alice, b.ID))
	assert.Equal(t, 1, defaults(t, svc, TypeShipping))
	def, err := svc.Default(ctx, alice, TypeShipping)
	require.NoError(t, err)
	assert.Equal(t, b.ID, def.ID)

	// setting the current default again is a no-op
	require.NoError(t, svc.SetDefault(ctx, alice, b.ID))
	assert.Equal(t, 1, defaults(t, svc, TypeShipping))
	_ = a
}

func TestUpdateToDefaultDemotesOthers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, alice, shippingReq("A", true))
	require.NoError(t, err)
	b, err := svc.Add(ctx, alice, shippingReq("B", false))
	require.NoError(t, err)

	req := shippingReq("B moved", true)
	_, err = svc.Update(ctx, alice, b.ID, req)
	require.NoError(t, err)

	assert.Equal(t, 1, defaults(t, svc, TypeShipping))
	def, err := svc.Default(ctx, alice, TypeShipping)
	require.NoError(t, err)
	assert.Equal(t, b.ID, def.ID)
}

func TestDeleteDefaultPromotesReplacement(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Add(ctx, alice, shippingReq("A", true))
	require.NoError(t, err)
	_, err = svc.Add(ctx, alice, shippingReq("B", false))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, a.ID))
	assert.Equal(t, 1, defaults(t, svc, TypeShipping))
}

func TestDeleteLastAddressLeavesNoDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Add(ctx, alice, shippingReq("A", true))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, alice, a.ID))

	def, err := svc.Default(ctx, alice, TypeShipping)
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Add(ctx, alice, shippingReq("A", true))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, alice, a.ID))
	require.NoError(t, svc.Delete(ctx, alice, a.ID))
}

func TestForeignAddressIsInvisible(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Add(ctx, alice, shippingReq("A", true))
	require.NoError(t, err)

	bob := identity.Actor{UserID: "bob"}
	err = svc.SetDefault(ctx, bob, a.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)
	_, err = svc.Update(ctx, bob, a.ID, shippingReq("hijack", true))
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestValidationRejectsIncompleteAddress(t *testing.T) {
	svc := newTestService(t)
	req := shippingReq("A", false)
	req.City = ""
	_, err := svc.Add(context.Background(), alice, req)
	assert.Error(t, err)
}
