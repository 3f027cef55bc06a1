package newsletter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zubacrafts/storefront/internal/modules/identity"
)

var (
	// ErrInvalidEmail is returned for an address that cannot be subscribed.
	ErrInvalidEmail = errors.New("newsletter: invalid email address")

	// ErrPermissionDenied guards the admin subscriber listing.
	ErrPermissionDenied = errors.New("newsletter: permission denied")
)

// Service manages newsletter subscriptions. Emails are normalized to lower
// case and kept unique; re-subscribing is a no-op, as is unsubscribing an
// unknown address.
type Service interface {
	// Subscribe records the email. Returns the existing subscription when
	// the address is already signed up.
	Subscribe(ctx context.Context, email string) (*Subscription, error)

	// Unsubscribe removes the email's subscription; no-op when absent.
	Unsubscribe(ctx context.Context, email string) error

	// IsSubscribed reports whether the email is currently signed up.
	IsSubscribed(ctx context.Context, email string) (bool, error)

	// List returns every subscription. Admin only.
	List(ctx context.Context, actor identity.Actor) ([]*Subscription, error)
}

type service struct {
	repo Repository
}

// NewService creates a new newsletter service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Subscribe(ctx context.Context, email string) (*Subscription, error) {
	email = normalize(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	sub := &Subscription{Email: email, CreatedAt: time.Now()}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

func (s *service) Unsubscribe(ctx context.Context, email string) error {
	existing, err := s.repo.GetByEmail(ctx, normalize(email))
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	return s.repo.DeleteSubscription(ctx, existing.ID)
}

func (s *service) IsSubscribed(ctx context.Context, email string) (bool, error) {
	existing, err := s.repo.GetByEmail(ctx, normalize(email))
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *service) List(ctx context.Context, actor identity.Actor) ([]*Subscription, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListSubscriptions(ctx)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
