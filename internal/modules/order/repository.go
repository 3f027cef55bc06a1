package order

import "context"

// Repository defines data access for orders and their status history.
type Repository interface {
	// CreateOrder persists a new order.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrderByID retrieves an order by id, nil when absent.
	GetOrderByID(ctx context.Context, id string) (*Order, error)

	// ListOrdersByUser returns a user's orders through the userId index.
	ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error)

	// ListOrdersByStatus returns orders through the status index.
	ListOrdersByStatus(ctx context.Context, status Status) ([]*Order, error)

	// ListOrders returns every order.
	ListOrders(ctx context.Context) ([]*Order, error)

	// UpdateOrder upserts an order.
	UpdateOrder(ctx context.Context, o *Order) error

	// AppendHistory writes one status event. Entries are append-only.
	AppendHistory(ctx context.Context, e *HistoryEntry) error

	// ListHistory returns an order's events in insertion order.
	ListHistory(ctx context.Context, orderID string) ([]*HistoryEntry, error)
}
