package cart

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// GuestOwner tags cart lines that belong to the anonymous actor. Guest lines
// live in the flat key space until they are merged into a user's cart.
const GuestOwner = "local"

// Item is one cart line. One logical line exists per (owner, product,
// options signature); adding a duplicate increments the quantity instead of
// creating a second line.
type Item struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"` // "local" for the guest cart
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	Price     float64           `json:"price"`
	Quantity  int               `json:"quantity"`
	Image     string            `json:"image,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
	DateAdded time.Time         `json:"dateAdded"`
}

// OptionsSignature renders the options as a stable identity component:
// sorted k=v pairs joined with "|".
func (i *Item) OptionsSignature() string {
	if len(i.Options) == 0 {
		return ""
	}
	keys := make([]string, 0, len(i.Options))
	for k := range i.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+i.Options[k])
	}
	return strings.Join(parts, "|")
}

// PromoType distinguishes how a promo code discounts the cart.
type PromoType string

const (
	PromoPercentage PromoType = "percentage"
	PromoFixed      PromoType = "fixed"
	PromoShipping   PromoType = "shipping"
)

// PromoCode is a discount code. The code string is the primary key. At most
// one code is applied per identity at a time.
type PromoCode struct {
	Code        string     `json:"code"`
	Type        PromoType  `json:"type"`
	Value       float64    `json:"value"`
	IsActive    bool       `json:"isActive"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	MinAmount   float64    `json:"minAmount,omitempty"`
	Description string     `json:"description,omitempty"`
}

// PromoReason is the typed cause of a rejected promo code.
type PromoReason string

const (
	PromoNotFound  PromoReason = "not_found"
	PromoInactive  PromoReason = "inactive"
	PromoExpired   PromoReason = "expired"
	PromoMinAmount PromoReason = "min_amount"
)

// PromoError reports why a code was rejected, without mutating the applied
// promo state.
type PromoError struct {
	Code      string
	Reason    PromoReason
	MinAmount float64
}

func (e *PromoError) Error() string {
	switch e.Reason {
	case PromoMinAmount:
		return fmt.Sprintf("cart: promo code %q requires a minimum subtotal of %.2f", e.Code, e.MinAmount)
	default:
		return fmt.Sprintf("cart: promo code %q rejected: %s", e.Code, e.Reason)
	}
}

// ShippingMethod is a delivery option with a flat price.
type ShippingMethod struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ShippingMethods are the storefront's delivery options. The first entry is
// the default selection.
var ShippingMethods = []ShippingMethod{
	{ID: "standard", Name: "Standard Delivery", Price: 50},
	{ID: "express", Name: "Express Delivery", Price: 120},
	{ID: "pickup", Name: "Store Pickup", Price: 0},
}

// FreeShippingThreshold zeroes the shipping charge once the subtotal clears it.
const FreeShippingThreshold = 1000.0

// Totals are the derived cart amounts. The invariants hold for every
// promo/shipping combination: discount never exceeds subtotal and total is
// never negative.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}
