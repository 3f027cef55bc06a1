package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/modules/catalog"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/notify"
)

var (
	// ErrProductUnknown is returned when an added product does not exist.
	ErrProductUnknown = errors.New("cart: product not found")

	// ErrUnknownShippingMethod is returned for an unrecognized method id.
	ErrUnknownShippingMethod = errors.New("cart: unknown shipping method")

	// ErrPermissionDenied guards promo code administration.
	ErrPermissionDenied = errors.New("cart: permission denied")
)

// ProductSource resolves products for cart lines. Satisfied by the catalog
// service.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// Service is the cart and pricing engine: the single source of truth for
// what will be ordered. Every mutating operation publishes a change event so
// dependent consumers can refresh counts without polling.
//
// The engine deliberately does not cap quantities against live stock at
// add time; stock is authoritative at fulfilment.
type Service interface {
	// AddItem merges into an existing line when (product, options) matches,
	// otherwise creates a new line. Quantity must be positive.
	AddItem(ctx context.Context, actor identity.Actor, req AddItemRequest) (*Item, error)

	// SetQuantity updates a line; a quantity of zero or less removes it.
	SetQuantity(ctx context.Context, actor identity.Actor, itemID string, quantity int) error

	// RemoveItem and Clear are idempotent.
	RemoveItem(ctx context.Context, actor identity.Actor, itemID string) error
	Clear(ctx context.Context, actor identity.Actor) error

	// Items returns the actor's lines, migrating any stale guest data found
	// under an authenticated session.
	Items(ctx context.Context, actor identity.Actor) ([]*Item, error)

	// MergeGuestIntoUser re-owns every guest line to the user, summing
	// quantities into existing lines. Clearing the guest store afterwards
	// makes a second merge a no-op.
	MergeGuestIntoUser(ctx context.Context, userID string) error

	// ApplyPromoCode validates the code against the current subtotal and
	// stores it as the identity's single applied promo. A rejected code
	// returns *PromoError and leaves any prior code untouched.
	ApplyPromoCode(ctx context.Context, actor identity.Actor, code string) (*PromoCode, error)
	RemovePromoCode(ctx context.Context, actor identity.Actor) error
	AppliedPromo(ctx context.Context, actor identity.Actor) (*PromoCode, error)

	// SelectShipping picks one of ShippingMethods for the identity.
	SelectShipping(ctx context.Context, actor identity.Actor, methodID string) error

	// Totals derives subtotal, shipping, discount and total.
	Totals(ctx context.Context, actor identity.Actor) (*Totals, error)

	// Promo code administration.
	CreatePromoCode(ctx context.Context, actor identity.Actor, code PromoCode) (*PromoCode, error)
	ListPromoCodes(ctx context.Context, actor identity.Actor) ([]*PromoCode, error)
}

// AddItemRequest describes an add-to-cart.
type AddItemRequest struct {
	ProductID string            `json:"productId"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
}

type service struct {
	repo     Repository
	products ProductSource
	bus      *notify.Bus
	log      *logrus.Entry
}

// NewService creates a new cart service.
func NewService(repo Repository, products ProductSource, bus *notify.Bus, log *logrus.Entry) Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &service{repo: repo, products: products, bus: bus, log: log}
}

func (s *service) AddItem(ctx context.Context, actor identity.Actor, req AddItemRequest) (*Item, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("cart: quantity must be greater than zero")
	}
	p, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("resolve product %s: %w", req.ProductID, err)
	}
	if p == nil {
		return nil, ErrProductUnknown
	}

	line := &Item{
		UserID:    actor.CartOwner(),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  req.Quantity,
		Image:     p.ImageURL,
		Options:   req.Options,
		DateAdded: time.Now(),
	}

	var merged *Item
	if actor.Guest() {
		merged, err = s.addGuestItem(ctx, line)
	} else {
		merged, err = s.addUserItem(ctx, actor.CartOwner(), line)
	}
	if err != nil {
		return nil, err
	}
	s.publish("added", merged.ID)
	return merged, nil
}

func (s *service) addGuestItem(ctx context.Context, line *Item) (*Item, error) {
	items, err := s.repo.LoadGuestItems(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range items {
		if existing.ProductID == line.ProductID && existing.OptionsSignature() == line.OptionsSignature() {
			existing.Quantity += line.Quantity
			if err := s.repo.SaveGuestItems(ctx, items); err != nil {
				return nil, err
			}
			return existing, nil
		}
	}
	line.ID = uuid.New().String()
	items = append(items, line)
	if err := s.repo.SaveGuestItems(ctx, items); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *service) addUserItem(ctx context.Context, owner string, line *Item) (*Item, error) {
	items, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, existing := range items {
		if existing.ProductID == line.ProductID && existing.OptionsSignature() == line.OptionsSignature() {
			existing.Quantity += line.Quantity
			if err := s.repo.UpdateItem(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
	}
	if err := s.repo.AddItem(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *service) SetQuantity(ctx context.Context, actor identity.Actor, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, actor, itemID)
	}
	if actor.Guest() {
		items, err := s.repo.LoadGuestItems(ctx)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.ID == itemID {
				item.Quantity = quantity
				if err := s.repo.SaveGuestItems(ctx, items); err != nil {
					return err
				}
				s.publish("updated", itemID)
				return nil
			}
		}
		return nil
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != actor.CartOwner() {
		return nil
	}
	item.Quantity = quantity
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return err
	}
	s.publish("updated", itemID)
	return nil
}

func (s *service) RemoveItem(ctx context.Context, actor identity.Actor, itemID string) error {
	if actor.Guest() {
		items, err := s.repo.LoadGuestItems(ctx)
		if err != nil {
			return err
		}
		kept := items[:0]
		for _, item := range items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		if err := s.repo.SaveGuestItems(ctx, kept); err != nil {
			return err
		}
		s.publish("removed", itemID)
		return nil
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != actor.CartOwner() {
		return nil
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.publish("removed", itemID)
	return nil
}

func (s *service) Clear(ctx context.Context, actor identity.Actor) error {
	if actor.Guest() {
		if err := s.repo.ClearGuestItems(ctx); err != nil {
			return err
		}
	} else {
		items, err := s.repo.ListByOwner(ctx, actor.CartOwner())
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
				return err
			}
		}
	}
	if err := s.repo.ClearAppliedPromo(ctx, actor.CartOwner()); err != nil {
		return err
	}
	s.publish("cleared", "")
	return nil
}

func (s *service) Items(ctx context.Context, actor identity.Actor) ([]*Item, error) {
	if actor.Guest() {
		return s.repo.LoadGuestItems(ctx)
	}
	// stale guest lines found under an authenticated session are migrated
	// once, lazily
	if guest, err := s.repo.LoadGuestItems(ctx); err == nil && len(guest) > 0 {
		if err := s.MergeGuestIntoUser(ctx, actor.UserID); err != nil {
			s.log.WithFields(logrus.Fields{"op": "items", "userId": actor.UserID, "error": err}).
				Warn("lazy guest cart migration failed")
		}
	}
	return s.repo.ListByOwner(ctx, actor.CartOwner())
}

func (s *service) MergeGuestIntoUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("cart: merge requires a user id")
	}
	guest, err := s.repo.LoadGuestItems(ctx)
	if err != nil {
		return fmt.Errorf("load guest cart: %w", err)
	}
	if len(guest) == 0 {
		return nil
	}
	owned, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user cart: %w", err)
	}
	for _, g := range guest {
		var match *Item
		for _, o := range owned {
			if o.ProductID == g.ProductID && o.OptionsSignature() == g.OptionsSignature() {
				match = o
				break
			}
		}
		if match != nil {
			match.Quantity += g.Quantity
			if err := s.repo.UpdateItem(ctx, match); err != nil {
				return fmt.Errorf("merge line %s: %w", g.ProductID, err)
			}
			continue
		}
		g.UserID = userID
		if err := s.repo.AddItem(ctx, g); err != nil {
			return fmt.Errorf("re-own line %s: %w", g.ProductID, err)
		}
		owned = append(owned, g)
	}
	// emptying the guest store is what makes a second merge a no-op
	if err := s.repo.ClearGuestItems(ctx); err != nil {
		return fmt.Errorf("clear guest cart: %w", err)
	}
	s.publish("merged", userID)
	return nil
}

func (s *service) ApplyPromoCode(ctx context.Context, actor identity.Actor, code string) (*PromoCode, error) {
	pc, err := s.repo.GetPromoCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("look up promo code: %w", err)
	}
	if pc == nil {
		return nil, &PromoError{Code: code, Reason: PromoNotFound}
	}
	if !pc.IsActive {
		return nil, &PromoError{Code: pc.Code, Reason: PromoInactive}
	}
	if pc.ExpiryDate != nil && pc.ExpiryDate.Before(time.Now()) {
		return nil, &PromoError{Code: pc.Code, Reason: PromoExpired}
	}
	if pc.MinAmount > 0 {
		subtotal, err := s.subtotal(ctx, actor)
		if err != nil {
			return nil, err
		}
		if subtotal < pc.MinAmount {
			return nil, &PromoError{Code: pc.Code, Reason: PromoMinAmount, MinAmount: pc.MinAmount}
		}
	}
	if err := s.repo.SaveAppliedPromo(ctx, actor.CartOwner(), pc); err != nil {
		return nil, fmt.Errorf("apply promo code: %w", err)
	}
	s.publish("promo_applied", pc.Code)
	return pc, nil
}

func (s *service) RemovePromoCode(ctx context.Context, actor identity.Actor) error {
	if err := s.repo.ClearAppliedPromo(ctx, actor.CartOwner()); err != nil {
		return err
	}
	s.publish("promo_removed", "")
	return nil
}

func (s *service) AppliedPromo(ctx context.Context, actor identity.Actor) (*PromoCode, error) {
	return s.repo.LoadAppliedPromo(ctx, actor.CartOwner())
}

func (s *service) SelectShipping(ctx context.Context, actor identity.Actor, methodID string) error {
	if methodByID(methodID) == nil {
		return ErrUnknownShippingMethod
	}
	if err := s.repo.SaveShippingSelection(ctx, actor.CartOwner(), methodID); err != nil {
		return err
	}
	s.publish("shipping_selected", methodID)
	return nil
}

func (s *service) Totals(ctx context.Context, actor identity.Actor) (*Totals, error) {
	items, err := s.Items(ctx, actor)
	if err != nil {
		return nil, err
	}
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}

	method := methodByID(s.selectedMethodID(ctx, actor))
	if method == nil {
		method = &ShippingMethods[0]
	}
	shipping := method.Price

	promo, err := s.repo.LoadAppliedPromo(ctx, actor.CartOwner())
	if err != nil {
		return nil, err
	}

	var discount float64
	if promo != nil {
		switch promo.Type {
		case PromoPercentage:
			discount = subtotal * promo.Value / 100
		case PromoFixed:
			discount = promo.Value
		case PromoShipping:
			shipping = 0
		}
	}
	if discount > subtotal {
		discount = subtotal
	}
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}

	total := subtotal + shipping - discount
	if total < 0 {
		total = 0
	}
	return &Totals{
		Subtotal: round2(subtotal),
		Shipping: round2(shipping),
		Discount: round2(discount),
		Total:    round2(total),
	}, nil
}

func (s *service) CreatePromoCode(ctx context.Context, actor identity.Actor, code PromoCode) (*PromoCode, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if code.Code == "" {
		return nil, fmt.Errorf("cart: promo code is required")
	}
	switch code.Type {
	case PromoPercentage, PromoFixed, PromoShipping:
	default:
		return nil, fmt.Errorf("cart: unknown promo type %q", code.Type)
	}
	if err := s.repo.SavePromoCode(ctx, &code); err != nil {
		return nil, fmt.Errorf("save promo code: %w", err)
	}
	return &code, nil
}

func (s *service) ListPromoCodes(ctx context.Context, actor identity.Actor) ([]*PromoCode, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListPromoCodes(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *service) subtotal(ctx context.Context, actor identity.Actor) (float64, error) {
	items, err := s.Items(ctx, actor)
	if err != nil {
		return 0, err
	}
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return subtotal, nil
}

func (s *service) selectedMethodID(ctx context.Context, actor identity.Actor) string {
	id, err := s.repo.LoadShippingSelection(ctx, actor.CartOwner())
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": "totals", "error": err}).
			Warn("could not load shipping selection, using default")
		return ""
	}
	return id
}

func (s *service) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(notify.Event{Topic: "cart", Action: action, Entity: "cartItem", ID: id})
	}
}

func methodByID(id string) *ShippingMethod {
	for i := range ShippingMethods {
		if ShippingMethods[i].ID == id {
			return &ShippingMethods[i]
		}
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
