package http

import (
	"fmt"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
)

// Request shapes are validated by a dedicated Validate method per
// operation and stay decoupled from the persistence types.

type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items"`
	PaymentMethod string             `json:"paymentMethod"`
	Note          string             `json:"note"`
}

func (r *CreateOrderRequest) Validate() *domain.ValidationError {
	fields := make(map[string]string)

	if len(r.Items) == 0 {
		fields["items"] = "must not be empty"
	}
	seen := make(map[string]struct{}, len(r.Items))
	for i, it := range r.Items {
		if it.ProductID == "" {
			fields[fmt.Sprintf("items[%d].productId", i)] = "required"
		}
		if it.Quantity < 1 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be at least 1"
		}
		if _, dup := seen[it.ProductID]; dup && it.ProductID != "" {
			fields[fmt.Sprintf("items[%d].productId", i)] = "duplicate product in order"
		}
		seen[it.ProductID] = struct{}{}
	}
	if !domain.ValidOrderMethod(domain.PaymentMethod(r.PaymentMethod)) {
		fields["paymentMethod"] = "must be one of cash_on_delivery, bank_transfer, e_wallet_a, e_wallet_b"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

type InitiatePaymentRequest struct {
	Method string `json:"method"`
}

func (r *InitiatePaymentRequest) Validate() *domain.ValidationError {
	if !domain.ValidPaymentMethod(domain.PaymentMethod(r.Method)) {
		return domain.Invalid("method", "must be one of cash_on_delivery, bank_transfer, e_wallet_b")
	}
	return nil
}

type CreateReviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (r *CreateReviewRequest) Validate() *domain.ValidationError {
	fields := make(map[string]string)
	if r.ProductID == "" {
		fields["productId"] = "required"
	}
	if r.Rating < 1 || r.Rating > 5 {
		fields["rating"] = "must be between 1 and 5"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *RefreshRequest) Validate() *domain.ValidationError {
	if r.RefreshToken == "" {
		return domain.Invalid("refreshToken", "required")
	}
	return nil
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
