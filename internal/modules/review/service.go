package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zubacrafts/storefront/internal/modules/identity"
)

var (
	// ErrNotAuthenticated is returned when a guest tries to write a review.
	ErrNotAuthenticated = errors.New("review: not authenticated")

	// ErrReviewNotFound is returned for missing or foreign reviews.
	ErrReviewNotFound = errors.New("review: not found")
)

// Service manages product reviews and their per-product aggregates.
type Service interface {
	// Add records a review. The rating must be between 1 and 5 inclusive;
	// anything else fails with a ValidationError.
	Add(ctx context.Context, actor identity.Actor, productID string, rating int, title, comment string) (*Review, error)

	// ListByProduct returns a product's reviews.
	ListByProduct(ctx context.Context, productID string) ([]*Review, error)

	// Summarize computes the product's review count and mean rating. A
	// product with no reviews summarizes to zero values, not an error.
	Summarize(ctx context.Context, productID string) (*Summary, error)

	// Delete removes a review; the owner or an admin only.
	Delete(ctx context.Context, actor identity.Actor, id string) error
}

type service struct {
	repo Repository
}

// NewService creates a new review service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Add(ctx context.Context, actor identity.Actor, productID string, rating int, title, comment string) (*Review, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	if productID == "" {
		return nil, &ValidationError{Field: "productId", Reason: "is required"}
	}
	now := time.Now()
	rev := &Review{
		ProductID: productID,
		UserID:    actor.UserID,
		Rating:    rating,
		Title:     strings.TrimSpace(title),
		Comment:   strings.TrimSpace(comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateReview(ctx, rev); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return rev, nil
}

func (s *service) ListByProduct(ctx context.Context, productID string) ([]*Review, error) {
	return s.repo.ListReviewsByProduct(ctx, productID)
}

func (s *service) Summarize(ctx context.Context, productID string) (*Summary, error) {
	revs, err := s.repo.ListReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	sum := &Summary{ProductID: productID, Count: len(revs)}
	if len(revs) == 0 {
		return sum, nil
	}
	total := 0
	for _, r := range revs {
		total += r.Rating
	}
	sum.Average = round2(float64(total) / float64(len(revs)))
	return sum, nil
}

func (s *service) Delete(ctx context.Context, actor identity.Actor, id string) error {
	rev, err := s.repo.GetReviewByID(ctx, id)
	if err != nil {
		return err
	}
	if rev == nil || (!actor.Admin && rev.UserID != actor.UserID) {
		return ErrReviewNotFound
	}
	return s.repo.DeleteReview(ctx, id)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
