package domain

import "time"

// Routing keys used on the order exchange.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderStatusChanged is emitted exactly once per committed status
// transition, after the transition is durable. Consumers must tolerate
// duplicates across process restarts.
type OrderStatusChanged struct {
	OrderID   string      `json:"orderId"`
	UserID    string      `json:"userId"`
	OldStatus OrderStatus `json:"oldStatus"`
	NewStatus OrderStatus `json:"newStatus"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderCreatedEvent goes to the message broker for downstream services
// (shipping, analytics). It is not pushed to client sockets.
type OrderCreatedEvent struct {
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	TotalPrice int64     `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}
