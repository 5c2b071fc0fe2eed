package repository

import (
	"context"
	"time"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
)

// Find methods return (nil, nil) when the record does not exist; the
// service layer turns that into domain.ErrNotFound.

type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	// UpdateWithPayment commits an order transition and the payment it was
	// driven by in a single transaction. Either both rows change or neither.
	UpdateWithPayment(ctx context.Context, order *domain.Order, payment *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type PaymentRepository interface {
	Save(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	FindByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	// FindPendingBefore lists payments still pending that were created
	// before cutoff. Used by the reconciliation sweep.
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Payment, error)
}

type ReviewRepository interface {
	Save(ctx context.Context, review *domain.Review) error
	FindByProduct(ctx context.Context, productID string) ([]domain.Review, error)
}
