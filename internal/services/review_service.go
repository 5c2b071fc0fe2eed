package services

import (
	"context"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/repository"
)

// ReviewService records post-purchase ratings. Append-only, no state
// machine. Whether the caller actually bought the product is the caller's
// precondition, not enforced here.
type ReviewService struct {
	reviews repository.ReviewRepository
}

func NewReviewService(reviews repository.ReviewRepository) *ReviewService {
	return &ReviewService{reviews: reviews}
}

func (s *ReviewService) CreateReview(ctx context.Context, userID, productID string, rating int, comment string) (*domain.Review, error) {
	if userID == "" {
		return nil, domain.Invalid("user_id", "required")
	}
	if productID == "" {
		return nil, domain.Invalid("product_id", "required")
	}
	if rating < 1 || rating > 5 {
		return nil, domain.Invalid("rating", "must be between 1 and 5")
	}

	review := domain.NewReview(userID, productID, rating, comment)
	if err := s.reviews.Save(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	return s.reviews.FindByProduct(ctx, productID)
}
