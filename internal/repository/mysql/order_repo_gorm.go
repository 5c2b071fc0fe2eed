package mysql

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/repository"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

var _ repository.OrderRepository = (*orderRepo)(nil)

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		slog.Error("order save failed", slog.String("order_id", order.ID), slog.Any("error", err))
		return err
	}
	return nil
}

func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		slog.Error("order update failed", slog.String("order_id", order.ID), slog.Any("error", err))
		return err
	}
	return nil
}

func (r *orderRepo) UpdateWithPayment(ctx context.Context, order *domain.Order, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		if payment != nil {
			if err := tx.Save(payment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
