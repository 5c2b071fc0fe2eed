package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_TotalIsExactSum(t *testing.T) {
	order := NewOrder("user-1", []OrderItem{
		{ProductID: "p1", Quantity: 2, UnitPrice: 500},
		{ProductID: "p2", Quantity: 1, UnitPrice: 300},
	}, MethodBankTransfer, "")

	assert.Equal(t, int64(1300), order.TotalPrice)
	assert.Equal(t, OrderPending, order.Status)
	assert.NotEmpty(t, order.ID)
	assert.Nil(t, order.PaymentID)
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.False(t, OrderPending.Terminal())
	assert.True(t, OrderCompleted.Terminal())
	assert.True(t, OrderCancelled.Terminal())

	assert.False(t, PaymentPending.Terminal())
	assert.True(t, PaymentCompleted.Terminal())
	assert.True(t, PaymentFailed.Terminal())
}

func TestOrderItems_ColumnRoundTrip(t *testing.T) {
	items := OrderItems{
		{ProductID: "p1", Quantity: 2, UnitPrice: 500},
		{ProductID: "p2", Quantity: 1, UnitPrice: 300},
	}

	raw, err := items.Value()
	require.NoError(t, err)

	var decoded OrderItems
	require.NoError(t, decoded.Scan(raw))
	assert.Equal(t, items, decoded)

	var fromString OrderItems
	require.NoError(t, fromString.Scan(string(raw.([]byte))))
	assert.Equal(t, items, fromString)

	var fromNil OrderItems
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil)

	assert.Error(t, decoded.Scan(42))
}

func TestNewPayment_MirrorsOrder(t *testing.T) {
	order := NewOrder("user-1", []OrderItem{{ProductID: "p1", Quantity: 3, UnitPrice: 400}}, MethodEWalletB, "")
	payment := NewPayment(order, MethodEWalletB)

	assert.Equal(t, order.ID, payment.OrderID)
	assert.Equal(t, order.UserID, payment.UserID)
	assert.Equal(t, order.TotalPrice, payment.Amount)
	assert.Equal(t, PaymentPending, payment.Status)
	assert.Nil(t, payment.PaidAt)
	assert.Empty(t, payment.TransactionID)
}

func TestValidMethods(t *testing.T) {
	assert.True(t, ValidOrderMethod(MethodEWalletA))
	assert.False(t, ValidPaymentMethod(MethodEWalletA))
	assert.True(t, ValidPaymentMethod(MethodEWalletB))
	assert.False(t, ValidOrderMethod(PaymentMethod("check")))
}

func TestOrder_HasProduct(t *testing.T) {
	order := NewOrder("user-1", []OrderItem{{ProductID: "p1", Quantity: 1, UnitPrice: 100}}, MethodCashOnDelivery, "")
	assert.True(t, order.HasProduct("p1"))
	assert.False(t, order.HasProduct("p2"))
}
