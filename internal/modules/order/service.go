package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/modules/address"
	"github.com/zubacrafts/storefront/internal/modules/cart"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/notify"
)

var (
	// ErrNotAuthenticated is returned when checkout is attempted without a
	// session.
	ErrNotAuthenticated = errors.New("order: not authenticated")

	// ErrEmptyCart is returned by CreateOrder on an empty cart; no order
	// record is written.
	ErrEmptyCart = errors.New("order: cart is empty")

	// ErrOrderNotFound is returned when an operation names a missing order.
	ErrOrderNotFound = errors.New("order: not found")

	// ErrOrderNotCancellable is returned when cancelling an order that has
	// left pending/processing.
	ErrOrderNotCancellable = errors.New("order: no longer cancellable")

	// ErrInvalidTransition is returned for a move the state machine forbids.
	ErrInvalidTransition = errors.New("order: invalid status transition")

	// ErrPermissionDenied guards admin-only status updates.
	ErrPermissionDenied = errors.New("order: permission denied")
)

// CartSource is the checkout's view of the cart engine.
type CartSource interface {
	Items(ctx context.Context, actor identity.Actor) ([]*cart.Item, error)
	Totals(ctx context.Context, actor identity.Actor) (*cart.Totals, error)
	AppliedPromo(ctx context.Context, actor identity.Actor) (*cart.PromoCode, error)
	Clear(ctx context.Context, actor identity.Actor) error
}

// StockAdjuster lowers product stock on delivery. Satisfied by the catalog
// service.
type StockAdjuster interface {
	DecrementStock(ctx context.Context, productID string, qty int) error
}

// Auditor records admin actions. Satisfied by the audit service; nil
// disables auditing.
type Auditor interface {
	Record(ctx context.Context, actor identity.Actor, action, entity, entityID, detail string)
}

// Service manages the order lifecycle: checkout, the status state machine,
// append-only history, and the stock decrement on delivery.
type Service interface {
	// CreateOrder snapshots the cart into a pending order, appends the
	// "created" history entry, and clears the cart. Fails with
	// ErrNotAuthenticated or ErrEmptyCart without side effects.
	CreateOrder(ctx context.Context, actor identity.Actor, req CreateOrderRequest) (*Order, error)

	// CreateFromQuote mints a pending order from already-priced lines,
	// through the same history-append path as checkout.
	CreateFromQuote(ctx context.Context, actor identity.Actor, items []Item, shipping address.Address, note string) (*Order, error)

	// GetOrder returns an order visible to the actor (owner or admin).
	GetOrder(ctx context.Context, actor identity.Actor, id string) (*Order, error)

	// ListOrders returns the actor's own orders.
	ListOrders(ctx context.Context, actor identity.Actor) ([]*Order, error)

	// ListAllOrders returns every order, optionally filtered by status.
	// Admin only.
	ListAllOrders(ctx context.Context, actor identity.Actor, status Status) ([]*Order, error)

	// UpdateStatus advances the state machine. Admin only. Synthesizes
	// tracking info on the first move to shipped and decrements stock on
	// the transition into delivered.
	UpdateStatus(ctx context.Context, actor identity.Actor, id string, newStatus Status, note string) (*Order, error)

	// CancelOrder is the customer escape hatch, legal from pending or
	// processing only.
	CancelOrder(ctx context.Context, actor identity.Actor, id, reason string) error

	// StatusHistory returns the order's events in insertion order.
	StatusHistory(ctx context.Context, actor identity.Actor, orderID string) ([]*HistoryEntry, error)
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	ShippingAddress address.Address  `json:"shippingAddress"`
	BillingAddress  *address.Address `json:"billingAddress,omitempty"`
	PaymentMethod   string           `json:"paymentMethod"`
}

type service struct {
	repo  Repository
	carts CartSource
	stock StockAdjuster
	audit Auditor
	bus   *notify.Bus
	log   *logrus.Entry
}

// NewService creates a new order service.
func NewService(repo Repository, carts CartSource, stock StockAdjuster, audit Auditor, bus *notify.Bus, log *logrus.Entry) Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &service{repo: repo, carts: carts, stock: stock, audit: audit, bus: bus, log: log}
}

func (s *service) CreateOrder(ctx context.Context, actor identity.Actor, req CreateOrderRequest) (*Order, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	lines, err := s.carts.Items(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	totals, err := s.carts.Totals(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("compute totals: %w", err)
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			ProductID:       l.ProductID,
			Name:            l.Name,
			PriceAtPurchase: l.Price,
			Quantity:        l.Quantity,
			Image:           l.Image,
			Options:         l.Options,
		})
	}

	now := time.Now()
	o := &Order{
		UserID:          actor.UserID,
		Items:           items,
		Status:          StatusPending,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Payment:         PaymentInfo{Method: req.PaymentMethod},
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Discount:        totals.Discount,
		Total:           totals.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if promo, err := s.carts.AppliedPromo(ctx, actor); err == nil && promo != nil {
		o.PromoCode = promo.Code
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	s.appendHistory(ctx, o, StatusPending, "created", actor.UserID, 1)

	if err := s.carts.Clear(ctx, actor); err != nil {
		// the order exists; a stale cart is recoverable, so log and carry on
		s.log.WithFields(logrus.Fields{"op": "createOrder", "orderId": o.ID, "error": err}).
			Warn("could not clear cart after checkout")
	}
	s.publish("created", o.ID)
	return o, nil
}

func (s *service) CreateFromQuote(ctx context.Context, actor identity.Actor, items []Item, shipping address.Address, note string) (*Order, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	var subtotal float64
	for _, it := range items {
		subtotal += it.PriceAtPurchase * float64(it.Quantity)
	}
	now := time.Now()
	o := &Order{
		UserID:          actor.UserID,
		Items:           items,
		Status:          StatusPending,
		ShippingAddress: shipping,
		Payment:         PaymentInfo{Method: "quote"},
		Subtotal:        round2(subtotal),
		Total:           round2(subtotal),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	if note == "" {
		note = "created"
	}
	s.appendHistory(ctx, o, StatusPending, note, actor.UserID, 1)
	s.publish("created", o.ID)
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, actor identity.Actor, id string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil || (!actor.Admin && o.UserID != actor.UserID) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, actor identity.Actor) ([]*Order, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	return s.repo.ListOrdersByUser(ctx, actor.UserID)
}

func (s *service) ListAllOrders(ctx context.Context, actor identity.Actor, status Status) ([]*Order, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if status != "" {
		return s.repo.ListOrdersByStatus(ctx, status)
	}
	return s.repo.ListOrders(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, actor identity.Actor, id string, newStatus Status, note string) (*Order, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	return s.transition(ctx, actor, id, newStatus, note, actor.UserID)
}

func (s *service) CancelOrder(ctx context.Context, actor identity.Actor, id, reason string) error {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if o == nil || (!actor.Admin && o.UserID != actor.UserID) {
		return ErrOrderNotFound
	}
	if o.Status != StatusPending && o.Status != StatusProcessing {
		return ErrOrderNotCancellable
	}
	_, err = s.transition(ctx, actor, id, StatusCancelled, "cancelled by customer: "+reason, actor.UserID)
	return err
}

func (s *service) StatusHistory(ctx context.Context, actor identity.Actor, orderID string) ([]*HistoryEntry, error) {
	if _, err := s.GetOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, orderID)
}

// ── state machine ────────────────────────────────────────────────────────────

func (s *service) transition(ctx context.Context, actor identity.Actor, id string, newStatus Status, note, updatedBy string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if !transitionAllowed(o.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
	}
	delivering := newStatus == StatusDelivered && o.Status != StatusDelivered

	o.Status = newStatus
	o.UpdatedAt = time.Now()
	if newStatus == StatusShipped && o.Tracking == nil {
		o.Tracking = generateTracking()
	}
	if err := s.repo.UpdateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": "updateStatus", "orderId": id, "error": err}).
			Warn("could not read history for sequencing")
	}
	s.appendHistory(ctx, o, newStatus, note, updatedBy, len(history)+1)

	if delivering {
		s.decrementStock(ctx, o)
	}
	if s.audit != nil && actor.Admin {
		s.audit.Record(ctx, actor, "order.status", "order", o.ID, string(newStatus))
	}
	s.publish("status_changed", o.ID)
	return o, nil
}

// decrementStock lowers stock per line independently; a missing product is
// logged and skipped rather than aborting the whole order.
func (s *service) decrementStock(ctx context.Context, o *Order) {
	for _, item := range o.Items {
		if err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.log.WithFields(logrus.Fields{
				"op": "decrementStock", "orderId": o.ID,
				"productId": item.ProductID, "error": err,
			}).Warn("could not decrement stock for delivered line")
		}
	}
}

func (s *service) appendHistory(ctx context.Context, o *Order, status Status, note, updatedBy string, seq int) {
	e := &HistoryEntry{
		OrderID:   o.ID,
		Seq:       seq,
		Status:    status,
		Timestamp: time.Now(),
		Note:      note,
		UpdatedBy: updatedBy,
	}
	if err := s.repo.AppendHistory(ctx, e); err != nil {
		s.log.WithFields(logrus.Fields{"op": "appendHistory", "orderId": o.ID, "error": err}).
			Error("could not append status history entry")
	}
}

func (s *service) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(notify.Event{Topic: "order", Action: action, Entity: "order", ID: id})
	}
}

// generateTracking creates a synthetic consignment: ZP-XXXXXXXX.
func generateTracking() *TrackingInfo {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return &TrackingInfo{
		Carrier:   "Zampost Express",
		Number:    "ZP-" + suffix,
		ShippedAt: time.Now(),
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
