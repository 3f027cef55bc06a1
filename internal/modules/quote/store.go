package quote

import (
	"context"

	"github.com/zubacrafts/storefront/internal/store"
)

const (
	RequestCollection = "quote_requests"
	QuoteCollection   = "quotes"

	userIndex    = "userId"
	statusIndex  = "status"
	requestIndex = "requestId"
)

// Specs are the collection schemas, declared once at startup.
var Specs = []store.CollectionSpec{
	{
		Name:       RequestCollection,
		PrimaryKey: "id",
		Indexes: []store.IndexSpec{
			{Name: userIndex, Field: "userId"},
			{Name: statusIndex, Field: "status"},
		},
	},
	{
		Name:       QuoteCollection,
		PrimaryKey: "id",
		Indexes: []store.IndexSpec{
			{Name: requestIndex, Field: "requestId"},
			{Name: statusIndex, Field: "status"},
		},
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed quote repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) CreateRequest(ctx context.Context, req *Request) error {
	id, err := r.db.Add(ctx, RequestCollection, req)
	if err != nil {
		return err
	}
	req.ID = id
	return nil
}

func (r *storeRepo) GetRequestByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	ok, err := r.db.GetByID(ctx, RequestCollection, id, &req)
	if err != nil || !ok {
		return nil, err
	}
	return &req, nil
}

func (r *storeRepo) ListRequestsByUser(ctx context.Context, userID string) ([]*Request, error) {
	var reqs []*Request
	if err := r.db.GetByIndex(ctx, RequestCollection, userIndex, userID, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *storeRepo) ListRequests(ctx context.Context) ([]*Request, error) {
	var reqs []*Request
	if err := r.db.GetAll(ctx, RequestCollection, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *storeRepo) UpdateRequest(ctx context.Context, req *Request) error {
	return r.db.Update(ctx, RequestCollection, req)
}

func (r *storeRepo) CreateQuote(ctx context.Context, q *Quote) error {
	id, err := r.db.Add(ctx, QuoteCollection, q)
	if err != nil {
		return err
	}
	q.ID = id
	return nil
}

func (r *storeRepo) GetQuoteByID(ctx context.Context, id string) (*Quote, error) {
	var q Quote
	ok, err := r.db.GetByID(ctx, QuoteCollection, id, &q)
	if err != nil || !ok {
		return nil, err
	}
	return &q, nil
}

func (r *storeRepo) GetQuoteByRequest(ctx context.Context, requestID string) (*Quote, error) {
	var quotes []*Quote
	if err := r.db.GetByIndex(ctx, QuoteCollection, requestIndex, requestID, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, nil
	}
	return quotes[0], nil
}

func (r *storeRepo) ListQuotes(ctx context.Context) ([]*Quote, error) {
	var quotes []*Quote
	if err := r.db.GetAll(ctx, QuoteCollection, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *storeRepo) UpdateQuote(ctx context.Context, q *Quote) error {
	return r.db.Update(ctx, QuoteCollection, q)
}
