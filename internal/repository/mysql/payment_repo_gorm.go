package mysql

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/repository"
)

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepo{db: db}
}

var _ repository.PaymentRepository = (*paymentRepo)(nil)

func (r *paymentRepo) Save(ctx context.Context, payment *domain.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		slog.Error("payment save failed", slog.String("payment_id", payment.ID), slog.Any("error", err))
		return err
	}
	return nil
}

func (r *paymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	if err := r.db.WithContext(ctx).Save(payment).Error; err != nil {
		slog.Error("payment update failed", slog.String("payment_id", payment.ID), slog.Any("error", err))
		return err
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) FindByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	var out []domain.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRepo) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	var out []domain.Payment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.PaymentPending, cutoff).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
