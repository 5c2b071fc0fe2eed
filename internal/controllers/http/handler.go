package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cyhinverse/mobile-store-server/internal/auth"
	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/infra/gateway"
	"github.com/cyhinverse/mobile-store-server/internal/services"
)

type Handler struct {
	orders  *services.OrderService
	reviews *services.ReviewService
	adapter *gateway.Adapter
	issuer  *auth.Issuer
}

func NewHandler(orders *services.OrderService, reviews *services.ReviewService, adapter *gateway.Adapter, issuer *auth.Issuer) *Handler {
	return &Handler{orders: orders, reviews: reviews, adapter: adapter, issuer: issuer}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/auth/refresh", h.RefreshToken)
	// Provider webhooks authenticate via provider signatures carried in the
	// payload, not via user tokens.
	api.POST("/payments/callback/:provider", h.PaymentCallback)

	authed := api.Group("", auth.Middleware(h.issuer))
	authed.POST("/orders", h.CreateOrder)
	authed.GET("/orders", h.ListOrders)
	authed.GET("/orders/:id", h.GetOrder)
	authed.POST("/orders/:id/payment", h.InitiatePayment)
	authed.POST("/orders/:id/cancel", h.CancelOrder)
	authed.GET("/orders/:id/payments", h.ListPayments)
	authed.POST("/reviews", h.CreateReview)
}

// respondError maps ledger error kinds to HTTP statuses. Validation errors
// carry their per-field messages through.
func respondError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": vErr.Fields})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrGateway):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if vErr := req.Validate(); vErr != nil {
		respondError(c, vErr)
		return
	}

	items := make([]services.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, services.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), auth.UserID(c), items, domain.PaymentMethod(req.PaymentMethod), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrdersByUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ownedOrder loads the order and hides it from non-owners.
func (h *Handler) ownedOrder(c *gin.Context) (*domain.Order, bool) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if order.UserID != auth.UserID(c) && auth.Role(c) != "admin" {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return nil, false
	}
	return order, true
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) InitiatePayment(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}

	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if vErr := req.Validate(); vErr != nil {
		respondError(c, vErr)
		return
	}

	payment, err := h.orders.InitiatePayment(c.Request.Context(), order.ID, domain.PaymentMethod(req.Method))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	actor := auth.UserID(c)
	if auth.Role(c) == "admin" {
		actor = ""
	}

	if err := h.orders.CancelOrder(c.Request.Context(), c.Param("id"), actor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(domain.OrderCancelled)})
}

func (h *Handler) ListPayments(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}

	payments, err := h.orders.ListPayments(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// PaymentCallback receives provider webhooks. Duplicate deliveries are
// acknowledged with 200 so providers stop retrying.
func (h *Handler) PaymentCallback(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	method := domain.PaymentMethod(c.Param("provider"))
	if err := h.adapter.HandleCallback(c.Request.Context(), method, payload); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

func (h *Handler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if vErr := req.Validate(); vErr != nil {
		respondError(c, vErr)
		return
	}

	userID := auth.UserID(c)

	// Purchase precondition lives here, outside the review core.
	purchased, err := h.orders.HasPurchased(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !purchased {
		c.JSON(http.StatusForbidden, gin.H{"error": "reviews require a completed order for the product"})
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), userID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if vErr := req.Validate(); vErr != nil {
		respondError(c, vErr)
		return
	}

	claims, err := h.issuer.Verify(req.RefreshToken, auth.PurposeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	access, err := h.issuer.Issue(claims.UserID, claims.Role, auth.PurposeAccess)
	if err != nil {
		respondError(c, err)
		return
	}
	refresh, err := h.issuer.Issue(claims.UserID, claims.Role, auth.PurposeRefresh)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenPairResponse{AccessToken: access, RefreshToken: refresh})
}
