package order

import (
	"context"
	"sort"

	"github.com/zubacrafts/storefront/internal/store"
)

const (
	Collection        = "orders"
	HistoryCollection = "order_status_history"

	userIndex    = "userId"
	statusIndex  = "status"
	orderIdIndex = "orderId"
)

// Specs are the collection schemas, declared once at startup. History is a
// full indexed collection rather than a per-order blob so concurrent writers
// cannot clobber each other's entries.
var Specs = []store.CollectionSpec{
	{
		Name:       Collection,
		PrimaryKey: "id",
		Indexes: []store.IndexSpec{
			{Name: userIndex, Field: "userId"},
			{Name: statusIndex, Field: "status"},
		},
	},
	{
		Name:       HistoryCollection,
		PrimaryKey: "id",
		Indexes: []store.IndexSpec{
			{Name: orderIdIndex, Field: "orderId"},
		},
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed order repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) CreateOrder(ctx context.Context, o *Order) error {
	id, err := r.db.Add(ctx, Collection, o)
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

func (r *storeRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	ok, err := r.db.GetByID(ctx, Collection, id, &o)
	if err != nil || !ok {
		return nil, err
	}
	return &o, nil
}

func (r *storeRepo) ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error) {
	var orders []*Order
	if err := r.db.GetByIndex(ctx, Collection, userIndex, userID, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *storeRepo) ListOrdersByStatus(ctx context.Context, status Status) ([]*Order, error) {
	var orders []*Order
	if err := r.db.GetByIndex(ctx, Collection, statusIndex, string(status), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *storeRepo) ListOrders(ctx context.Context) ([]*Order, error) {
	var orders []*Order
	if err := r.db.GetAll(ctx, Collection, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *storeRepo) UpdateOrder(ctx context.Context, o *Order) error {
	return r.db.Update(ctx, Collection, o)
}

func (r *storeRepo) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	id, err := r.db.Add(ctx, HistoryCollection, e)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *storeRepo) ListHistory(ctx context.Context, orderID string) ([]*HistoryEntry, error) {
	var entries []*HistoryEntry
	if err := r.db.GetByIndex(ctx, HistoryCollection, orderIdIndex, orderID, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}
