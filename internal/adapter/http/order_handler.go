package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/http/middleware"
	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

type OrderHandler struct {
	checkout *usecase.Checkout
	query    usecase.OrderRepo
}

func NewOrderHandler(checkout *usecase.Checkout, query usecase.OrderRepo) *OrderHandler {
	return &OrderHandler{checkout: checkout, query: query}
}

type lineItemReq struct {
	ProductID      string `json:"productId" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gte=1"`
	UnitPriceCents int64  `json:"unitPriceCents" binding:"gte=0"`
}

type checkoutReq struct {
	Items           []lineItemReq `json:"items" binding:"required,min=1,dive"`
	ShippingAddress string        `json:"shippingAddress" binding:"required"`
	PaymentMethod   string        `json:"paymentMethod" binding:"required"`

	Prices struct {
		SubtotalCents int64 `json:"subtotalCents" binding:"gte=0"`
		TaxCents      int64 `json:"taxCents" binding:"gte=0"`
		ShippingCents int64 `json:"shippingCents" binding:"gte=0"`
		TotalCents    int64 `json:"totalCents" binding:"gte=0"`
	} `json:"prices" binding:"required"`
}

type checkoutResp struct {
	OrderID string `json:"orderId"`
	State   string `json:"state"`
}

// Checkout handler: translate the submitted cart into the use case input.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "detail": err.Error()})
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.LineItem{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	out, err := h.checkout.Execute(ctx, usecase.CheckoutInput{
		UserID:          c.GetString(middleware.UserIDKey),
		IdempotencyKey:  c.GetHeader("X-Idempotency-Key"),
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Prices: domain.PriceBreakdown{
			SubtotalCents: req.Prices.SubtotalCents,
			TaxCents:      req.Prices.TaxCents,
			ShippingCents: req.Prices.ShippingCents,
			TotalCents:    req.Prices.TotalCents,
		},
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, usecase.ErrDuplicate):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, checkoutResp{OrderID: out.OrderID, State: string(out.State)})
}

// ListOrders returns the caller's orders, newest first.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	orders, err := h.query.ListByUser(ctx, c.GetString(middleware.UserIDKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderJSON(&o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// GetOrder returns a single order owned by the caller.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	o, err := h.query.GetByID(ctx, c.Param("id"))
	if err != nil || o.UserID != c.GetString(middleware.UserIDKey) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, orderJSON(o))
}

func orderJSON(o *domain.Order) gin.H {
	items := make([]gin.H, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, gin.H{
			"productId":      it.ProductID,
			"quantity":       it.Quantity,
			"unitPriceCents": it.UnitPriceCents,
		})
	}
	return gin.H{
		"id":              o.ID,
		"state":           o.State,
		"items":           items,
		"shippingAddress": o.ShippingAddress,
		"paymentMethod":   o.PaymentMethod,
		"prices": gin.H{
			"subtotalCents": o.Prices.SubtotalCents,
			"taxCents":      o.Prices.TaxCents,
			"shippingCents": o.Prices.ShippingCents,
			"totalCents":    o.Prices.TotalCents,
		},
		"paymentIntentRef": o.PaymentIntentRef,
		"transactionRef":   o.TransactionRef,
		"createdAt":        o.CreatedAt,
	}
}
