package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderRequest_Validate(t *testing.T) {
	valid := CreateOrderRequest{
		Items:         []OrderItemRequest{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: "bank_transfer",
	}
	assert.Nil(t, valid.Validate())

	t.Run("empty items", func(t *testing.T) {
		req := CreateOrderRequest{PaymentMethod: "bank_transfer"}
		vErr := req.Validate()
		require.NotNil(t, vErr)
		assert.Contains(t, vErr.Fields, "items")
	})

	t.Run("bad quantity and missing product reported per field", func(t *testing.T) {
		req := CreateOrderRequest{
			Items:         []OrderItemRequest{{ProductID: "", Quantity: 0}},
			PaymentMethod: "bank_transfer",
		}
		vErr := req.Validate()
		require.NotNil(t, vErr)
		assert.Contains(t, vErr.Fields, "items[0].productId")
		assert.Contains(t, vErr.Fields, "items[0].quantity")
	})

	t.Run("duplicate product", func(t *testing.T) {
		req := CreateOrderRequest{
			Items: []OrderItemRequest{
				{ProductID: "p1", Quantity: 1},
				{ProductID: "p1", Quantity: 2},
			},
			PaymentMethod: "cash_on_delivery",
		}
		vErr := req.Validate()
		require.NotNil(t, vErr)
		assert.Contains(t, vErr.Fields, "items[1].productId")
	})

	t.Run("unknown payment method", func(t *testing.T) {
		req := CreateOrderRequest{
			Items:         []OrderItemRequest{{ProductID: "p1", Quantity: 1}},
			PaymentMethod: "gold_bars",
		}
		vErr := req.Validate()
		require.NotNil(t, vErr)
		assert.Contains(t, vErr.Fields, "paymentMethod")
	})
}

func TestInitiatePaymentRequest_Validate(t *testing.T) {
	assert.Nil(t, (&InitiatePaymentRequest{Method: "e_wallet_b"}).Validate())
	// e_wallet_a exists on legacy orders but cannot settle new payments.
	assert.NotNil(t, (&InitiatePaymentRequest{Method: "e_wallet_a"}).Validate())
	assert.NotNil(t, (&InitiatePaymentRequest{Method: ""}).Validate())
}

func TestCreateReviewRequest_Validate(t *testing.T) {
	assert.Nil(t, (&CreateReviewRequest{ProductID: "p1", Rating: 4}).Validate())

	vErr := (&CreateReviewRequest{ProductID: "", Rating: 9}).Validate()
	require.NotNil(t, vErr)
	assert.Contains(t, vErr.Fields, "productId")
	assert.Contains(t, vErr.Fields, "rating")
}

func TestRefreshRequest_Validate(t *testing.T) {
	assert.Nil(t, (&RefreshRequest{RefreshToken: "tok"}).Validate())
	assert.NotNil(t, (&RefreshRequest{}).Validate())
}
