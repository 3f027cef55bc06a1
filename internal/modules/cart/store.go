package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zubacrafts/storefront/internal/store"
)

const (
	ItemCollection  = "cart_items"
	PromoCollection = "promo_codes"

	ownerIndex = "userId"

	guestItemsKey   = "guest_cart"
	promoKeyPrefix  = "promo:"
	shippingKeyPref = "shipping:"
)

// Specs are the collection schemas, declared once at startup.
var Specs = []store.CollectionSpec{
	{
		Name:       ItemCollection,
		PrimaryKey: "id",
		Indexes: []store.IndexSpec{
			{Name: ownerIndex, Field: "userId"},
		},
	},
	{
		Name:       PromoCollection,
		PrimaryKey: "code",
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed cart repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) AddItem(ctx context.Context, item *Item) error {
	id, err := r.db.Add(ctx, ItemCollection, item)
	if err != nil {
		return err
	}
	item.ID = id
	return nil
}

func (r *storeRepo) GetItem(ctx context.Context, id string) (*Item, error) {
	var item Item
	ok, err := r.db.GetByID(ctx, ItemCollection, id, &item)
	if err != nil || !ok {
		return nil, err
	}
	return &item, nil
}

func (r *storeRepo) ListByOwner(ctx context.Context, owner string) ([]*Item, error) {
	var items []*Item
	if err := r.db.GetByIndex(ctx, ItemCollection, ownerIndex, owner, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *storeRepo) UpdateItem(ctx context.Context, item *Item) error {
	return r.db.Update(ctx, ItemCollection, item)
}

func (r *storeRepo) DeleteItem(ctx context.Context, id string) error {
	return r.db.Delete(ctx, ItemCollection, id)
}

func (r *storeRepo) LoadGuestItems(ctx context.Context) ([]*Item, error) {
	raw, ok, err := r.db.GetValue(ctx, guestItemsKey)
	if err != nil || !ok {
		return nil, err
	}
	var items []*Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	return items, nil
}

func (r *storeRepo) SaveGuestItems(ctx context.Context, items []*Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	return r.db.SetValue(ctx, guestItemsKey, raw)
}

func (r *storeRepo) ClearGuestItems(ctx context.Context) error {
	return r.db.DeleteValue(ctx, guestItemsKey)
}

func (r *storeRepo) LoadAppliedPromo(ctx context.Context, owner string) (*PromoCode, error) {
	raw, ok, err := r.db.GetValue(ctx, promoKeyPrefix+owner)
	if err != nil || !ok {
		return nil, err
	}
	var code PromoCode
	if err := json.Unmarshal(raw, &code); err != nil {
		return nil, fmt.Errorf("decode applied promo: %w", err)
	}
	return &code, nil
}

func (r *storeRepo) SaveAppliedPromo(ctx context.Context, owner string, code *PromoCode) error {
	raw, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("encode applied promo: %w", err)
	}
	return r.db.SetValue(ctx, promoKeyPrefix+owner, raw)
}

func (r *storeRepo) ClearAppliedPromo(ctx context.Context, owner string) error {
	return r.db.DeleteValue(ctx, promoKeyPrefix+owner)
}

func (r *storeRepo) LoadShippingSelection(ctx context.Context, owner string) (string, error) {
	raw, ok, err := r.db.GetValue(ctx, shippingKeyPref+owner)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

func (r *storeRepo) SaveShippingSelection(ctx context.Context, owner, methodID string) error {
	return r.db.SetValue(ctx, shippingKeyPref+owner, []byte(methodID))
}

func (r *storeRepo) GetPromoCode(ctx context.Context, code string) (*PromoCode, error) {
	var pc PromoCode
	ok, err := r.db.GetByID(ctx, PromoCollection, strings.ToUpper(code), &pc)
	if err != nil || !ok {
		return nil, err
	}
	return &pc, nil
}

func (r *storeRepo) SavePromoCode(ctx context.Context, code *PromoCode) error {
	code.Code = strings.ToUpper(code.Code)
	return r.db.Update(ctx, PromoCollection, code)
}

func (r *storeRepo) ListPromoCodes(ctx context.Context) ([]*PromoCode, error) {
	var codes []*PromoCode
	if err := r.db.GetAll(ctx, PromoCollection, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}
