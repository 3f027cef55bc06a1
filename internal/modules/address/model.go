package address

import "time"

// Type distinguishes shipping from billing addresses. The single-default
// invariant holds per (user, type).
type Type string

const (
	TypeShipping Type = "shipping"
	TypeBilling  Type = "billing"
)

// Address is one entry in a user's address book. At most one address per
// (user, type) has IsDefault set; the service enforces this, not the store.
type Address struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Type       Type      `json:"type"`
	IsDefault  bool      `json:"isDefault"`
	FullName   string    `json:"fullName"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	Province   string    `json:"province,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
