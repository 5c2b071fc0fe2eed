package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/infra"
	"github.com/cyhinverse/mobile-store-server/internal/infra/gateway"
	rabbit "github.com/cyhinverse/mobile-store-server/internal/infra/rabbitmq"
	"github.com/cyhinverse/mobile-store-server/internal/repository"
)

// EventSink receives committed status-change events for real-time delivery.
type EventSink interface {
	Publish(event domain.OrderStatusChanged)
}

// ItemInput is a requested order line before catalog prices are snapshotted.
type ItemInput struct {
	ProductID string
	Quantity  int
}

// OrderService is the order ledger: the only code that creates orders,
// attaches payments and advances status. Every transition on one order is
// serialized by a per-order lock; the event for a transition is emitted
// only after the transition is committed.
type OrderService struct {
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	catalog   infra.CatalogClientInterface
	gateway   gateway.Gateway
	sink      EventSink
	publisher rabbit.PublisherInterface
	locks     *keyedLocks
}

func NewOrderService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	catalog infra.CatalogClientInterface,
	gw gateway.Gateway,
	sink EventSink,
	publisher rabbit.PublisherInterface,
) *OrderService {
	return &OrderService{
		orders:    orders,
		payments:  payments,
		catalog:   catalog,
		gateway:   gw,
		sink:      sink,
		publisher: publisher,
		locks:     newKeyedLocks(),
	}
}

var _ gateway.Settler = (*OrderService)(nil)

// CreateOrder validates the requested lines, snapshots unit prices from the
// catalog and persists a pending order. Prices are locked at this moment;
// later catalog changes never touch the order.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, items []ItemInput, method domain.PaymentMethod, note string) (*domain.Order, error) {
	if userID == "" {
		return nil, domain.Invalid("user_id", "required")
	}
	if len(items) == 0 {
		return nil, domain.Invalid("items", "must not be empty")
	}
	if !domain.ValidOrderMethod(method) {
		return nil, domain.Invalid("payment_method", fmt.Sprintf("unknown method %q", method))
	}

	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductID == "" {
			return nil, domain.Invalid(field+".product_id", "required")
		}
		if it.Quantity < 1 {
			return nil, domain.Invalid(field+".quantity", "must be at least 1")
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, domain.Invalid(field+".product_id", "duplicate product in order")
		}
		seen[it.ProductID] = struct{}{}
	}

	lines := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		prod, err := s.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("catalog lookup: %w", err)
		}
		if prod == nil {
			return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, it.ProductID)
		}
		if prod.Price < 0 {
			return nil, fmt.Errorf("%w: product %s has negative price", domain.ErrInvalidInput, it.ProductID)
		}
		lines = append(lines, domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: prod.Price,
		})
	}

	order := domain.NewOrder(userID, lines, method, note)
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	go s.publishOrderCreated(context.Background(), order)

	return order, nil
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	evt := domain.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, domain.EventOrderCreated, evt); err != nil {
		slog.Warn("order.created publish failed", slog.String("order_id", order.ID), slog.Any("error", err))
	}
}

// InitiatePayment opens a settlement attempt for a pending order that has
// no pending payment. A gateway failure leaves the order untouched with no
// payment attached, so the caller can retry.
func (s *OrderService) InitiatePayment(ctx context.Context, orderID string, method domain.PaymentMethod) (*domain.Payment, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if order.Status != domain.OrderPending {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidState, orderID, order.Status)
	}
	if !domain.ValidPaymentMethod(method) {
		return nil, domain.Invalid("method", fmt.Sprintf("method %q cannot settle payments", method))
	}

	attempts, err := s.payments.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for _, p := range attempts {
		if p.Status == domain.PaymentPending {
			return nil, fmt.Errorf("%w: order %s already has a pending payment", domain.ErrInvalidState, orderID)
		}
	}

	payment := domain.NewPayment(order, method)

	// Gateway first: nothing is persisted unless the provider accepted the
	// charge request.
	ack, err := s.gateway.Initiate(ctx, payment)
	if err != nil {
		return nil, err
	}

	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, err
	}
	order.PaymentID = &payment.ID
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	if ack.Settled && ack.Result != nil {
		if err := s.settleLocked(ctx, order, payment, *ack.Result); err != nil {
			return nil, err
		}
	}

	return payment, nil
}

// SettlePayment applies a normalized gateway result. It is idempotent: a
// payment already in a terminal state makes the call a no-op success, which
// is how redelivered webhooks are tolerated.
func (s *OrderService) SettlePayment(ctx context.Context, paymentID string, result gateway.PaymentResult) error {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return fmt.Errorf("%w: payment %s", domain.ErrNotFound, paymentID)
	}

	unlock := s.locks.lock(payment.OrderID)
	defer unlock()

	// Re-read under the lock; a concurrent settle may have won.
	payment, err = s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return fmt.Errorf("%w: payment %s", domain.ErrNotFound, paymentID)
	}
	if payment.Status.Terminal() {
		slog.Debug("settle on terminal payment ignored",
			slog.String("payment_id", paymentID),
			slog.String("status", string(payment.Status)))
		return nil
	}

	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, payment.OrderID)
	}

	return s.settleLocked(ctx, order, payment, result)
}

// settleLocked applies the transition. Caller holds the order lock and has
// verified the payment is not terminal.
func (s *OrderService) settleLocked(ctx context.Context, order *domain.Order, payment *domain.Payment, result gateway.PaymentResult) error {
	now := time.Now().UTC()
	payment.ProviderResponse = result.ProviderResponse
	payment.UpdatedAt = now

	if !result.Success {
		payment.Status = domain.PaymentFailed
		if err := s.payments.Update(ctx, payment); err != nil {
			return err
		}
		slog.Info("payment failed",
			slog.String("payment_id", payment.ID),
			slog.String("order_id", order.ID))
		return nil
	}

	if order.Status.Terminal() {
		// A cancel won the race before the provider confirmed; the order
		// never leaves its terminal state.
		payment.Status = domain.PaymentFailed
		if err := s.payments.Update(ctx, payment); err != nil {
			return err
		}
		slog.Warn("successful settlement against terminal order recorded as failed",
			slog.String("payment_id", payment.ID),
			slog.String("order_id", order.ID),
			slog.String("order_status", string(order.Status)))
		return nil
	}

	payment.Status = domain.PaymentCompleted
	payment.TransactionID = result.TransactionID
	payment.PaidAt = &now

	old := order.Status
	order.Status = domain.OrderCompleted
	order.UpdatedAt = now

	if err := s.orders.UpdateWithPayment(ctx, order, payment); err != nil {
		return err
	}

	slog.Info("payment settled",
		slog.String("payment_id", payment.ID),
		slog.String("order_id", order.ID),
		slog.String("transaction_id", payment.TransactionID))

	s.emitStatusChanged(ctx, order, old)
	return nil
}

// CancelOrder moves a pending order to cancelled. An attached pending
// payment is marked failed in the same transaction. actor, when non-empty,
// must be the order's owner.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, actor string) error {
	unlock := s.locks.lock(orderID)
	defer unlock()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if actor != "" && actor != order.UserID {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if order.Status.Terminal() {
		return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidState, orderID, order.Status)
	}

	now := time.Now().UTC()

	var pending *domain.Payment
	attempts, err := s.payments.FindByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for i := range attempts {
		if attempts[i].Status == domain.PaymentPending {
			pending = &attempts[i]
			pending.Status = domain.PaymentFailed
			pending.ProviderResponse = json.RawMessage(`{"reason":"order cancelled"}`)
			pending.UpdatedAt = now
			break
		}
	}

	old := order.Status
	order.Status = domain.OrderCancelled
	order.UpdatedAt = now

	if err := s.orders.UpdateWithPayment(ctx, order, pending); err != nil {
		return err
	}

	slog.Info("order cancelled", slog.String("order_id", orderID), slog.String("actor", actor))

	s.emitStatusChanged(ctx, order, old)
	return nil
}

func (s *OrderService) emitStatusChanged(ctx context.Context, order *domain.Order, old domain.OrderStatus) {
	evt := domain.OrderStatusChanged{
		OrderID:   order.ID,
		UserID:    order.UserID,
		OldStatus: old,
		NewStatus: order.Status,
		Timestamp: time.Now().UTC(),
	}

	if s.sink != nil {
		s.sink.Publish(evt)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.EventOrderStatusChanged, evt); err != nil {
			slog.Warn("status event publish failed", slog.String("order_id", order.ID), slog.Any("error", err))
		}
	}
}

// GetOrder is a lock-free snapshot read.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return order, nil
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

// ListPayments returns the full attempt history for an order, oldest first.
// Failed attempts are kept for audit.
func (s *OrderService) ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return s.payments.FindByOrder(ctx, orderID)
}

// HasPurchased reports whether userID has a completed order containing
// productID. The review handler uses this as its precondition.
func (s *OrderService) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for i := range orders {
		if orders[i].Status == domain.OrderCompleted && orders[i].HasProduct(productID) {
			return true, nil
		}
	}
	return false, nil
}
