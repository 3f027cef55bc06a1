package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/store"
)

var admin = identity.Actor{UserID: "root", Admin: true}

func newTestService(t *testing.T) Service {
	t.Helper()
	db := store.NewMemory()
	require.NoError(t, db.DefineCollection(context.Background(), Spec))
	return NewService(NewStoreRepository(db), nil)
}

func TestRecordAppendsAdminActions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.Record(ctx, admin, "order.status", "order", "o1", "shipped")
	svc.Record(ctx, admin, "order.status", "order", "o1", "delivered")
	svc.Record(ctx, admin, "product.delete", "product", "p1", "")

	entries, err := svc.List(ctx, admin, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "shipped", entries[0].Detail)
	assert.Equal(t, "root", entries[0].AdminID)

	orders, err := svc.List(ctx, admin, "order")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestRecordIgnoresNonAdmins(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.Record(ctx, identity.Actor{UserID: "alice"}, "order.status", "order", "o1", "x")
	svc.Record(ctx, identity.Actor{}, "order.status", "order", "o1", "x")

	entries, err := svc.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListIsAdminOnly(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.List(context.Background(), identity.Actor{UserID: "alice"}, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
