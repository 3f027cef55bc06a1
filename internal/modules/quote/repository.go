package quote

import "context"

// Repository defines data access for quote requests and quotes.
type Repository interface {
	// CreateRequest persists a new request.
	CreateRequest(ctx context.Context, r *Request) error

	// GetRequestByID retrieves a request by id, nil when absent.
	GetRequestByID(ctx context.Context, id string) (*Request, error)

	// ListRequestsByUser returns a user's requests through the userId index.
	ListRequestsByUser(ctx context.Context, userID string) ([]*Request, error)

	// ListRequests returns every request.
	ListRequests(ctx context.Context) ([]*Request, error)

	// UpdateRequest upserts a request.
	UpdateRequest(ctx context.Context, r *Request) error

	// CreateQuote persists a new quote.
	CreateQuote(ctx context.Context, q *Quote) error

	// GetQuoteByID retrieves a quote by id, nil when absent.
	GetQuoteByID(ctx context.Context, id string) (*Quote, error)

	// GetQuoteByRequest returns the quote linked to a request, nil when the
	// request has none yet.
	GetQuoteByRequest(ctx context.Context, requestID string) (*Quote, error)

	// ListQuotes returns every quote.
	ListQuotes(ctx context.Context) ([]*Quote, error)

	// UpdateQuote upserts a quote.
	UpdateQuote(ctx context.Context, q *Quote) error
}
