package newsletter

import "time"

// Subscription is a newsletter signup, unique per email.
type Subscription struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
