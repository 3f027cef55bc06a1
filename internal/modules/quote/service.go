package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/modules/address"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/modules/order"
)

var (
	// ErrNotAuthenticated is returned for guest actors.
	ErrNotAuthenticated = errors.New("quote: not authenticated")

	// ErrRequestNotFound / ErrQuoteNotFound are returned for missing or
	// foreign records.
	ErrRequestNotFound = errors.New("quote: request not found")
	ErrQuoteNotFound   = errors.New("quote: not found")

	// ErrQuoteNotAcceptable is returned when accepting or rejecting a
	// quote whose request is not awaiting the customer.
	ErrQuoteNotAcceptable = errors.New("quote: not awaiting customer action")

	// ErrQuoteExpired is returned when ValidUntil has passed.
	ErrQuoteExpired = errors.New("quote: validity period has passed")

	// ErrPermissionDenied guards the admin pricing operations.
	ErrPermissionDenied = errors.New("quote: permission denied")
)

// OrderCreator mints an order from accepted quote lines through the same
// creation path as checkout. Satisfied by the order service.
type OrderCreator interface {
	CreateFromQuote(ctx context.Context, actor identity.Actor, items []order.Item, shipping address.Address, note string) (*order.Order, error)
}

// Service manages the bespoke-quote lifecycle: request -> priced quote ->
// accept (which converts to an order), reject, or expire.
type Service interface {
	// CreateRequest opens a request; requires authentication. The request
	// expires RequestValidityDays from now if never actioned.
	CreateRequest(ctx context.Context, actor identity.Actor, req CreateRequestInput) (*Request, error)

	// GetRequest returns a request visible to the actor (owner or admin).
	GetRequest(ctx context.Context, actor identity.Actor, id string) (*Request, error)

	// ListRequests returns the actor's requests, or all of them for admins.
	ListRequests(ctx context.Context, actor identity.Actor) ([]*Request, error)

	// CreateQuote prices a request and moves it to in_review. Admin only.
	CreateQuote(ctx context.Context, actor identity.Actor, requestID string, items []Item, notes string, validityDays int) (*Quote, error)

	// SendQuote releases the priced quote to the customer, moving the
	// request to awaiting_customer. Admin only.
	SendQuote(ctx context.Context, actor identity.Actor, quoteID string) (*Quote, error)

	// GetQuoteForRequest returns the quote linked to a request, nil when
	// none exists yet.
	GetQuoteForRequest(ctx context.Context, actor identity.Actor, requestID string) (*Quote, error)

	// AcceptQuote converts the quote into a pending order and returns it.
	// Legal only while the request awaits the customer and before
	// ValidUntil; a one-way transition.
	AcceptQuote(ctx context.Context, actor identity.Actor, quoteID string, shipping address.Address) (*order.Order, error)

	// RejectQuote records the reason and closes the quote.
	RejectQuote(ctx context.Context, actor identity.Actor, quoteID, reason string) error

	// ExpireOverdue sweeps past-due requests and quotes into expired.
	// Returns how many records it transitioned.
	ExpireOverdue(ctx context.Context) (int, error)
}

// CreateRequestInput holds the customer's ask.
type CreateRequestInput struct {
	EventType   string    `json:"eventType"`
	EventDate   time.Time `json:"eventDate"`
	Budget      float64   `json:"budget"`
	Description string    `json:"description"`
	Attachments []string  `json:"attachments"`
}

type service struct {
	repo   Repository
	orders OrderCreator
	log    *logrus.Entry
	now    func() time.Time
}

// NewService creates a new quote service.
func NewService(repo Repository, orders OrderCreator, log *logrus.Entry) Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &service{repo: repo, orders: orders, log: log, now: time.Now}
}

func (s *service) CreateRequest(ctx context.Context, actor identity.Actor, in CreateRequestInput) (*Request, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	if in.EventType == "" {
		return nil, fmt.Errorf("quote: event type is required")
	}
	now := s.now()
	r := &Request{
		UserID:      actor.UserID,
		EventType:   in.EventType,
		EventDate:   in.EventDate,
		Budget:      in.Budget,
		Description: in.Description,
		Attachments: in.Attachments,
		Status:      RequestPending,
		ExpiresAt:   now.AddDate(0, 0, RequestValidityDays),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("create quote request: %w", err)
	}
	return r, nil
}

func (s *service) GetRequest(ctx context.Context, actor identity.Actor, id string) (*Request, error) {
	r, err := s.repo.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || (!actor.Admin && r.UserID != actor.UserID) {
		return nil, ErrRequestNotFound
	}
	return r, nil
}

func (s *service) ListRequests(ctx context.Context, actor identity.Actor) ([]*Request, error) {
	if actor.Admin {
		return s.repo.ListRequests(ctx)
	}
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	return s.repo.ListRequestsByUser(ctx, actor.UserID)
}

func (s *service) CreateQuote(ctx context.Context, actor identity.Actor, requestID string, items []Item, notes string, validityDays int) (*Quote, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	r, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRequestNotFound
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("quote: at least one line item is required")
	}
	for _, it := range items {
		if it.Quantity <= 0 || it.UnitPrice < 0 {
			return nil, fmt.Errorf("quote: invalid line %q", it.Description)
		}
	}
	if validityDays <= 0 {
		validityDays = DefaultQuoteValidityDays
	}

	var subtotal float64
	for _, it := range items {
		subtotal += float64(it.Quantity) * it.UnitPrice
	}
	tax := subtotal * TaxRate
	now := s.now()
	q := &Quote{
		RequestID:  requestID,
		Items:      items,
		Subtotal:   round2(subtotal),
		Tax:        round2(tax),
		Total:      round2(subtotal + tax),
		Notes:      notes,
		Status:     QuoteDraft,
		ValidUntil: now.AddDate(0, 0, validityDays),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	r.Status = RequestInReview
	r.UpdatedAt = now
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("move request to in_review: %w", err)
	}
	return q, nil
}

func (s *service) SendQuote(ctx context.Context, actor identity.Actor, quoteID string) (*Quote, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	q, r, err := s.quoteWithRequest(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if r.Status != RequestInReview {
		return nil, fmt.Errorf("quote: request is %s, expected in_review", r.Status)
	}
	now := s.now()
	q.Status = QuoteSent
	q.UpdatedAt = now
	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("send quote: %w", err)
	}
	r.Status = RequestAwaitingCustomer
	r.UpdatedAt = now
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("move request to awaiting_customer: %w", err)
	}
	return q, nil
}

func (s *service) GetQuoteForRequest(ctx context.Context, actor identity.Actor, requestID string) (*Quote, error) {
	if _, err := s.GetRequest(ctx, actor, requestID); err != nil {
		return nil, err
	}
	return s.repo.GetQuoteByRequest(ctx, requestID)
}

func (s *service) AcceptQuote(ctx context.Context, actor identity.Actor, quoteID string, shipping address.Address) (*order.Order, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	q, r, err := s.quoteWithRequest(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && r.UserID != actor.UserID {
		return nil, ErrQuoteNotFound
	}
	if r.Status != RequestAwaitingCustomer {
		return nil, ErrQuoteNotAcceptable
	}
	now := s.now()
	if !now.Before(q.ValidUntil) {
		// mark the pair expired on the way out so the terminal state is
		// observable, then report the race to the caller
		s.expirePair(ctx, q, r)
		return nil, ErrQuoteExpired
	}

	items := make([]order.Item, 0, len(q.Items))
	for _, it := range q.Items {
		name := it.Description
		if name == "" {
			name = r.EventType
		}
		items = append(items, order.Item{
			ProductID:       it.ProductID,
			Name:            name,
			PriceAtPurchase: it.UnitPrice,
			Quantity:        it.Quantity,
		})
	}
	o, err := s.orders.CreateFromQuote(ctx, identity.Actor{UserID: r.UserID}, items, shipping,
		"created from quote "+q.ID)
	if err != nil {
		return nil, fmt.Errorf("convert quote to order: %w", err)
	}

	q.Status = QuoteAccepted
	q.UpdatedAt = now
	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("mark quote accepted: %w", err)
	}
	r.Status = RequestAccepted
	r.UpdatedAt = now
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("mark request accepted: %w", err)
	}
	return o, nil
}

func (s *service) RejectQuote(ctx context.Context, actor identity.Actor, quoteID, reason string) error {
	if actor.Guest() {
		return ErrNotAuthenticated
	}
	q, r, err := s.quoteWithRequest(ctx, quoteID)
	if err != nil {
		return err
	}
	if !actor.Admin && r.UserID != actor.UserID {
		return ErrQuoteNotFound
	}
	if r.Status != RequestAwaitingCustomer {
		return ErrQuoteNotAcceptable
	}
	now := s.now()
	if reason != "" {
		if q.Notes != "" {
			q.Notes += "\n"
		}
		q.Notes += "rejected: " + strings.TrimSpace(reason)
	}
	q.Status = QuoteRejected
	q.UpdatedAt = now
	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		return fmt.Errorf("mark quote rejected: %w", err)
	}
	r.Status = RequestRejected
	r.UpdatedAt = now
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		return fmt.Errorf("mark request rejected: %w", err)
	}
	return nil
}

func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	requests, err := s.repo.ListRequests(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	expired := 0
	for _, r := range requests {
		switch r.Status {
		case RequestAccepted, RequestRejected, RequestExpired:
			continue
		}
		due := r.ExpiresAt
		q, err := s.repo.GetQuoteByRequest(ctx, r.ID)
		if err != nil {
			s.log.WithFields(logrus.Fields{"op": "expireOverdue", "requestId": r.ID, "error": err}).
				Warn("could not load quote for request")
			continue
		}
		if q != nil {
			due = q.ValidUntil
		}
		if now.Before(due) {
			continue
		}
		if q != nil {
			s.expirePair(ctx, q, r)
		} else {
			r.Status = RequestExpired
			r.UpdatedAt = now
			if err := s.repo.UpdateRequest(ctx, r); err != nil {
				s.log.WithFields(logrus.Fields{"op": "expireOverdue", "requestId": r.ID, "error": err}).
					Warn("could not expire request")
				continue
			}
		}
		expired++
	}
	return expired, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *service) quoteWithRequest(ctx context.Context, quoteID string) (*Quote, *Request, error) {
	q, err := s.repo.GetQuoteByID(ctx, quoteID)
	if err != nil {
		return nil, nil, err
	}
	if q == nil {
		return nil, nil, ErrQuoteNotFound
	}
	r, err := s.repo.GetRequestByID(ctx, q.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if r == nil {
		return nil, nil, ErrRequestNotFound
	}
	return q, r, nil
}

func (s *service) expirePair(ctx context.Context, q *Quote, r *Request) {
	now := s.now()
	q.Status = QuoteExpired
	q.UpdatedAt = now
	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		s.log.WithFields(logrus.Fields{"op": "expire", "quoteId": q.ID, "error": err}).
			Warn("could not expire quote")
	}
	r.Status = RequestExpired
	r.UpdatedAt = now
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		s.log.WithFields(logrus.Fields{"op": "expire", "requestId": r.ID, "error": err}).
			Warn("could not expire request")
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
