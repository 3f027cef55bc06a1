package quote

import "time"

// RequestStatus is the lifecycle state of a quote request.
type RequestStatus string

const (
	RequestPending          RequestStatus = "pending"
	RequestInReview         RequestStatus = "in_review"
	RequestAwaitingCustomer RequestStatus = "awaiting_customer"
	RequestAccepted         RequestStatus = "accepted"
	RequestRejected         RequestStatus = "rejected"
	RequestExpired          RequestStatus = "expired"
)

// QuoteStatus is the state of the priced response.
type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

// TaxRate applied to quoted work.
const TaxRate = 0.20

// RequestValidityDays is how long a request stays open before expiring.
const RequestValidityDays = 30

// DefaultQuoteValidityDays bounds how long a customer may accept a quote.
const DefaultQuoteValidityDays = 30

// Request captures a customer's ask for bespoke event work.
type Request struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	EventType   string        `json:"eventType"`
	EventDate   time.Time     `json:"eventDate"`
	Budget      float64       `json:"budget,omitempty"`
	Description string        `json:"description"`
	Attachments []string      `json:"attachments,omitempty"`
	Status      RequestStatus `json:"status"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Item is one priced quote line. Unit prices carry forward into the order
// as price-at-purchase when the quote is accepted.
type Item struct {
	Description string  `json:"description"`
	ProductID   string  `json:"productId,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Quote is the priced response, linked 1:1 to its request. It is only
// actionable while the parent request awaits the customer and before
// ValidUntil.
type Quote struct {
	ID         string      `json:"id"`
	RequestID  string      `json:"requestId"`
	Items      []Item      `json:"items"`
	Subtotal   float64     `json:"subtotal"`
	Tax        float64     `json:"tax"`
	Discount   float64     `json:"discount,omitempty"`
	Total      float64     `json:"total"`
	Notes      string      `json:"notes,omitempty"`
	Status     QuoteStatus `json:"status"`
	ValidUntil time.Time   `json:"validUntil"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}
