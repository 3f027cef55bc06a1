package order

import (
	"time"

	"github.com/zubacrafts/storefront/internal/modules/address"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// validTransitions is the allowed status state machine. Cancelled is
// terminal; delivered only moves to refunded.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusRefunded},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

func transitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Item is one order line, a snapshot taken at creation time. The price at
// purchase is fixed and immune to later catalog changes.
type Item struct {
	ProductID       string            `json:"productId"`
	Name            string            `json:"name"`
	PriceAtPurchase float64           `json:"priceAtPurchase"`
	Quantity        int               `json:"quantity"`
	Image           string            `json:"image,omitempty"`
	Options         map[string]string `json:"options,omitempty"`
}

// PaymentInfo records how the order is to be paid.
type PaymentInfo struct {
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}

// TrackingInfo is synthesized the first time an order ships.
type TrackingInfo struct {
	Carrier   string    `json:"carrier"`
	Number    string    `json:"number"`
	ShippedAt time.Time `json:"shippedAt"`
}

// Order is a customer's placed order. Items and totals are immutable
// snapshots; only the status (and what hangs off it) changes afterwards, and
// orders are never hard-deleted.
type Order struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Items           []Item           `json:"items"`
	Status          Status           `json:"status"`
	ShippingAddress address.Address  `json:"shippingAddress"`
	BillingAddress  *address.Address `json:"billingAddress,omitempty"`
	Payment         PaymentInfo      `json:"payment"`
	Subtotal        float64          `json:"subtotal"`
	Shipping        float64          `json:"shipping"`
	Discount        float64          `json:"discount"`
	Total           float64          `json:"total"`
	PromoCode       string           `json:"promoCode,omitempty"`
	Tracking        *TrackingInfo    `json:"tracking,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// HistoryEntry is one append-only status event. Entries are written once per
// transition and never mutated or deleted individually.
type HistoryEntry struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Seq       int       `json:"seq"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	UpdatedBy string    `json:"updatedBy"`
}
