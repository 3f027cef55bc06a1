package review

import "context"

// Repository defines data access for reviews.
type Repository interface {
	// CreateReview persists a new review.
	CreateReview(ctx context.Context, r *Review) error

	// GetReviewByID retrieves a review by id, nil when absent.
	GetReviewByID(ctx context.Context, id string) (*Review, error)

	// ListReviewsByProduct returns a product's reviews through the
	// productId index.
	ListReviewsByProduct(ctx context.Context, productID string) ([]*Review, error)

	// ListReviewsByUser returns a user's reviews through the userId index.
	ListReviewsByUser(ctx context.Context, userID string) ([]*Review, error)

	// UpdateReview upserts a review.
	UpdateReview(ctx context.Context, r *Review) error

	// DeleteReview removes a review; no-op when absent.
	DeleteReview(ctx context.Context, id string) error
}
