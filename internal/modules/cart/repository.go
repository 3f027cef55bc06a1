package cart

import "context"

// Repository defines data access for cart lines, the guest flat list, the
// applied-promo singletons, and the promo code collection.
type Repository interface {
	// Indexed per-user lines.
	AddItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id string) (*Item, error)
	ListByOwner(ctx context.Context, owner string) ([]*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id string) error

	// Guest flat list, persisted outside the indexed collections.
	LoadGuestItems(ctx context.Context) ([]*Item, error)
	SaveGuestItems(ctx context.Context, items []*Item) error
	ClearGuestItems(ctx context.Context) error

	// Applied promo singleton per identity.
	LoadAppliedPromo(ctx context.Context, owner string) (*PromoCode, error)
	SaveAppliedPromo(ctx context.Context, owner string, code *PromoCode) error
	ClearAppliedPromo(ctx context.Context, owner string) error

	// Selected shipping method per identity, empty when never chosen.
	LoadShippingSelection(ctx context.Context, owner string) (string, error)
	SaveShippingSelection(ctx context.Context, owner, methodID string) error

	// Promo code collection, keyed by the code itself.
	GetPromoCode(ctx context.Context, code string) (*PromoCode, error)
	SavePromoCode(ctx context.Context, code *PromoCode) error
	ListPromoCodes(ctx context.Context) ([]*PromoCode, error)
}
