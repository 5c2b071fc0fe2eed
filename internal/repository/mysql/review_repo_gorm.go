package mysql

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/repository"
)

type reviewRepo struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) repository.ReviewRepository {
	return &reviewRepo{db: db}
}

var _ repository.ReviewRepository = (*reviewRepo)(nil)

func (r *reviewRepo) Save(ctx context.Context, review *domain.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		slog.Error("review save failed", slog.String("review_id", review.ID), slog.Any("error", err))
		return err
	}
	return nil
}

func (r *reviewRepo) FindByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	var out []domain.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
