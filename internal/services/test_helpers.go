package services

import (
	"context"
	"sync"
	"time"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/infra"
)

const (
	TestUserID     = "user-1"
	TestProductID  = "prod-1"
	TestProductID2 = "prod-2"
)

func CreateTestProduct(id string, price int64) *infra.ProductInfo {
	return &infra.ProductInfo{
		ID:    id,
		Name:  "Test Product " + id,
		Price: price,
		Stock: 10,
	}
}

func CreateTestOrder(userID string, items []domain.OrderItem) *domain.Order {
	return domain.NewOrder(userID, items, domain.MethodBankTransfer, "")
}

// EventRecorder captures dispatched status events in publish order.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.OrderStatusChanged
}

func (r *EventRecorder) Publish(e domain.OrderStatusChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *EventRecorder) Events() []domain.OrderStatusChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.OrderStatusChanged, len(r.events))
	copy(out, r.events)
	return out
}

// memStore backs the in-memory repositories used by the concurrency and
// lifecycle tests. Records are stored by value so a re-read under the
// order lock observes committed state, like the real database.
type memStore struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	payments map[string]domain.Payment
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[string]domain.Order),
		payments: make(map[string]domain.Payment),
	}
}

type memOrderRepo struct{ s *memStore }
type memPaymentRepo struct{ s *memStore }

func (s *memStore) orderRepo() *memOrderRepo     { return &memOrderRepo{s: s} }
func (s *memStore) paymentRepo() *memPaymentRepo { return &memPaymentRepo{s: s} }

func (r *memOrderRepo) Save(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[order.ID] = *order
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[order.ID] = *order
	return nil
}

func (r *memOrderRepo) UpdateWithPayment(_ context.Context, order *domain.Order, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[order.ID] = *order
	if payment != nil {
		r.s.payments[payment.ID] = *payment
	}
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *memOrderRepo) FindByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) Save(_ context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *memPaymentRepo) Update(_ context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memPaymentRepo) FindByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Payment
	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) FindPendingBefore(_ context.Context, cutoff time.Time) ([]domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Payment
	for _, p := range r.s.payments {
		if p.Status == domain.PaymentPending && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}
