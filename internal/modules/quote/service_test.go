package quote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/modules/address"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/modules/order"
	"github.com/zubacrafts/storefront/internal/store"
)

var (
	alice = identity.Actor{UserID: "alice"}
	admin = identity.Actor{UserID: "root", Admin: true}
)

type recordingOrders struct {
	created []*order.Order
	items   []order.Item
}

func (r *recordingOrders) CreateFromQuote(_ context.Context, actor identity.Actor, items []order.Item, _ address.Address, note string) (*order.Order, error) {
	r.items = items
	o := &order.Order{ID: "o1", UserID: actor.UserID, Items: items, Status: order.StatusPending}
	r.created = append(r.created, o)
	return o, nil
}

func newTestService(t *testing.T, orders OrderCreator) (*service, Repository) {
	t.Helper()
	db := store.NewMemory()
	ctx := context.Background()
	for _, spec := range Specs {
		require.NoError(t, db.DefineCollection(ctx, spec))
	}
	repo := NewStoreRepository(db)
	return NewService(repo, orders, nil).(*service), repo
}

func ship() address.Address {
	return address.Address{FullName: "Alice", Line1: "12 Cairo Rd", City: "Lusaka", Country: "ZM"}
}

// pricedQuote walks a request through pricing and sending so it awaits the
// customer.
func pricedQuote(t *testing.T, svc *service) *Quote {
	t.Helper()
	ctx := context.Background()
	r, err := svc.CreateRequest(ctx, alice, CreateRequestInput{EventType: "wedding", Budget: 5000})
	require.NoError(t, err)
	q, err := svc.CreateQuote(ctx, admin, r.ID, []Item{
		{Description: "Banner printing", Quantity: 2, UnitPrice: 600},
		{Description: "Branded mugs", ProductID: "mug", Quantity: 10, UnitPrice: 75},
	}, "bulk discount applied", 0)
	require.NoError(t, err)
	q, err = svc.SendQuote(ctx, admin, q.ID)
	require.NoError(t, err)
	return q
}

func TestCreateRequestRequiresAuthentication(t *testing.T) {
	svc, _ := newTestService(t, &recordingOrders{})
	_, err := svc.CreateRequest(context.Background(), identity.Actor{}, CreateRequestInput{EventType: "wedding"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCreateQuoteComputesTotalsAndMovesRequest(t *testing.T) {
	svc, _ := newTestService(t, &recordingOrders{})
	ctx := context.Background()

	r, err := svc.CreateRequest(ctx, alice, CreateRequestInput{EventType: "wedding"})
	require.NoError(t, err)
	assert.Equal(t, RequestPending, r.Status)

	q, err := svc.CreateQuote(ctx, admin, r.ID, []Item{
		{Description: "Banner printing", Quantity: 2, UnitPrice: 600},
	}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, q.Subtotal)
	assert.Equal(t, 240.0, q.Tax)
	assert.Equal(t, 1440.0, q.Total)
	assert.Equal(t, QuoteDraft, q.Status)

	got, err := svc.GetRequest(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, RequestInReview, got.Status)
}

func TestCreateQuoteIsAdminOnly(t *testing.T) {
	svc, _ := newTestService(t, &recordingOrders{})
	ctx := context.Background()
	r, err := svc.CreateRequest(ctx, alice, CreateRequestInput{EventType: "wedding"})
	require.NoError(t, err)
	_, err = svc.CreateQuote(ctx, alice, r.ID, []Item{{Description: "x", Quantity: 1, UnitPrice: 1}}, "", 0)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSendQuoteMovesRequestToAwaitingCustomer(t *testing.T) {
	svc, _ := newTestService(t, &recordingOrders{})
	q := pricedQuote(t, svc)
	assert.Equal(t, QuoteSent, q.Status)

	got, err := svc.GetRequest(context.Background(), alice, q.RequestID)
	require.NoError(t, err)
	assert.Equal(t, RequestAwaitingCustomer, got.Status)
}

func TestAcceptQuoteCreatesOrderWithCarriedPrices(t *testing.T) {
	orders := &recordingOrders{}
	svc, _ := newTestService(t, orders)
	q := pricedQuote(t, svc)
	ctx := context.Background()

	o, err := svc.AcceptQuote(ctx, alice, q.ID, ship())
	require.NoError(t, err)
	require.NotNil(t, o)
	require.Len(t, orders.items, 2)
	assert.Equal(t, 600.0, orders.items[0].PriceAtPurchase)
	assert.Equal(t, 75.0, orders.items[1].PriceAtPurchase)
	assert.Equal(t, "mug", orders.items[1].ProductID)

	got, err := svc.GetQuoteForRequest(ctx, alice, q.RequestID)
	require.NoError(t, err)
	assert.Equal(t, QuoteAccepted, got.Status)
	r, err := svc.GetRequest(ctx, alice, q.RequestID)
	require.NoError(t, err)
	assert.Equal(t, RequestAccepted, r.Status)

	// accepting is one-way
	_, err = svc.AcceptQuote(ctx, alice, q.ID, ship())
	assert.ErrorIs(t, err, ErrQuoteNotAcceptable)
}

func TestAcceptExpiredQuoteCreatesNoOrder(t *testing.T) {
	orders := &recordingOrders{}
	svc, _ := newTestService(t, orders)
	q := pricedQuote(t, svc)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Now().AddDate(0, 0, DefaultQuoteValidityDays+1) }
	_, err := svc.AcceptQuote(ctx, alice, q.ID, ship())
	assert.ErrorIs(t, err, ErrQuoteExpired)
	assert.Empty(t, orders.created)

	// the pair is swept into the terminal expired state on the way out
	got, err := svc.GetQuoteForRequest(ctx, admin, q.RequestID)
	require.NoError(t, err)
	assert.Equal(t, QuoteExpired, got.Status)
	r, err := svc.GetRequest(ctx, admin, q.RequestID)
	require.NoError(t, err)
	assert.Equal(t, RequestExpired, r.Status)
}

func TestAcceptBeforeSendIsIllegal(t *testing.T) {
	svc, _ := newTestService(t, &recordingOrders{})
	ctx := context.Background()

	r, err := svc.CreateRequest(ctx, alice, CreateRequestInput{EventType: "wedding"})
	require.NoError(t, err)
	q, err := svc.CreateQuote(ctx, admin, r.ID, []Item{{Description: "x", Quantity: 1, UnitPrice: 100}}, "", 0)
	require.NoError(t, err)

	_, err = svc.AcceptQuote(ctx, alice, q.ID, ship())
	assert.ErrorIs(t, err, ErrQuoteNotAcceptable)
}

func TestRejectQuoteRecordsReason(t *testing.T) {
	svc, _ := newTestService(t, &recordingOrders{})
	q := pricedQuote(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.RejectQuote(ctx, alice, q.ID, "over budget"))
	got, err := svc.GetQuoteForRequest(ctx, alice, q.RequestID)
	require.NoError(t, err)
	assert.Equal(t, QuoteRejected, got.Status)
	assert.Contains(t, got.Notes, "rejected: over budget")

	r, err := svc.GetRequest(ctx, alice, q.RequestID)
	require.NoError(t, err)
	assert.Equal(t, RequestRejected, r.Status)
}

func TestQuotesAreInvisibleToStrangers(t *testing.T) {
	svc, _ := newTestService(t, &recordingOrders{})
	q := pricedQuote(t, svc)
	ctx := context.Background()

	bob := identity.Actor{UserID: "bob"}
	_, err := svc.AcceptQuote(ctx, bob, q.ID, ship())
	assert.ErrorIs(t, err, ErrQuoteNotFound)
	err = svc.RejectQuote(ctx, bob, q.ID, "")
	assert.ErrorIs(t, err, ErrQuoteNotFound)
	_, err = svc.GetRequest(ctx, bob, q.RequestID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestExpireOverdueSweepsPastDuePairs(t *testing.T) {
	svc, _ := newTestService(t, &recordingOrders{})
	q := pricedQuote(t, svc)
	ctx := context.Background()

	// an untouched second request with no quote yet
	r2, err := svc.CreateRequest(ctx, alice, CreateRequestInput{EventType: "funeral"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().AddDate(0, 0, RequestValidityDays+1) }
	n, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := svc.GetQuoteForRequest(ctx, admin, q.RequestID)
	require.NoError(t, err)
	assert.Equal(t, QuoteExpired, got.Status)
	gotReq, err := svc.GetRequest(ctx, admin, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, RequestExpired, gotReq.Status)

	// a second sweep finds nothing left to expire
	n, err = svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
