package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further status transition is accepted.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

type PaymentMethod string

const (
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	MethodBankTransfer   PaymentMethod = "bank_transfer"
	MethodEWalletA       PaymentMethod = "e_wallet_a"
	MethodEWalletB       PaymentMethod = "e_wallet_b"
)

// ValidOrderMethod reports whether m is accepted on an order.
func ValidOrderMethod(m PaymentMethod) bool {
	switch m {
	case MethodCashOnDelivery, MethodBankTransfer, MethodEWalletA, MethodEWalletB:
		return true
	}
	return false
}

// OrderItem is a price snapshot taken from the catalog at order time.
// UnitPrice is in minor currency units and is never recomputed afterwards.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// OrderItems is stored inline on the order row as a JSON column.
type OrderItems []OrderItem

func (items OrderItems) Value() (driver.Value, error) {
	return json.Marshal(items)
}

func (items *OrderItems) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, items)
	case string:
		return json.Unmarshal([]byte(v), items)
	case nil:
		*items = nil
		return nil
	}
	return fmt.Errorf("order items: unsupported column type %T", src)
}

type Order struct {
	ID            string        `json:"id" gorm:"primaryKey;size:36"`
	UserID        string        `json:"userId" gorm:"not null;index;size:36"`
	Items         OrderItems    `json:"items" gorm:"type:json;not null"`
	TotalPrice    int64         `json:"totalPrice" gorm:"not null"`
	Status        OrderStatus   `json:"status" gorm:"type:enum('pending','completed','cancelled');default:'pending';index"`
	PaymentID     *string       `json:"paymentId,omitempty" gorm:"size:36"`
	PaymentMethod PaymentMethod `json:"paymentMethod" gorm:"size:32;not null"`
	Note          string        `json:"note,omitempty" gorm:"size:512"`
	CreatedAt     time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`
}

// NewOrder builds a pending order with the total derived from the item
// snapshot. Input validation happens before this point.
func NewOrder(userID string, items []OrderItem, method PaymentMethod, note string) *Order {
	var total int64
	for _, it := range items {
		total += int64(it.Quantity) * it.UnitPrice
	}

	now := time.Now().UTC()
	return &Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		Items:         items,
		TotalPrice:    total,
		Status:        OrderPending,
		PaymentMethod: method,
		Note:          note,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasProduct reports whether the order carries a line for productID.
func (o *Order) HasProduct(productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
