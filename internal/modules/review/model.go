package review

import (
	"fmt"
	"time"
)

// Review is a customer's rating of a product. Rating is constrained to 1-5.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary aggregates a product's reviews.
type Summary struct {
	ProductID string  `json:"productId"`
	Count     int     `json:"count"`
	Average   float64 `json:"average"`
}

// ValidationError reports a rejected review field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("review: invalid %s: %s", e.Field, e.Reason)
}
