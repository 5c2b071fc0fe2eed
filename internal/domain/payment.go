package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// ValidPaymentMethod reports whether m can settle a payment. The e_wallet_a
// provider only appears on orders imported from the legacy storefront and
// never takes new charges.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCashOnDelivery, MethodBankTransfer, MethodEWalletB:
		return true
	}
	return false
}

// Payment is a single settlement attempt for an order. Failed attempts are
// kept as history; a retry creates a fresh row.
type Payment struct {
	ID               string          `json:"id" gorm:"primaryKey;size:36"`
	OrderID          string          `json:"orderId" gorm:"not null;index;size:36"`
	UserID           string          `json:"userId" gorm:"not null;index;size:36"`
	Amount           int64           `json:"amount" gorm:"not null"`
	Method           PaymentMethod   `json:"method" gorm:"size:32;not null"`
	Status           PaymentStatus   `json:"status" gorm:"type:enum('pending','completed','failed');default:'pending';index"`
	TransactionID    string          `json:"transactionId,omitempty" gorm:"size:128"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	ProviderResponse json.RawMessage `json:"providerResponse,omitempty" gorm:"type:json"`
	CreatedAt        time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// NewPayment opens a pending settlement attempt for the order's full total.
// Amount always mirrors Order.TotalPrice, owner always mirrors the order.
func NewPayment(order *Order, method PaymentMethod) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    order.TotalPrice,
		Method:    method,
		Status:    PaymentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
