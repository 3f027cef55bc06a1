package newsletter

import "context"

// Repository defines data access for newsletter subscriptions.
type Repository interface {
	// CreateSubscription persists a new subscription.
	CreateSubscription(ctx context.Context, s *Subscription) error

	// GetByEmail returns the subscription for an email, nil when absent.
	GetByEmail(ctx context.Context, email string) (*Subscription, error)

	// ListSubscriptions returns every subscription.
	ListSubscriptions(ctx context.Context) ([]*Subscription, error)

	// DeleteSubscription removes a subscription; no-op when absent.
	DeleteSubscription(ctx context.Context, id string) error
}
