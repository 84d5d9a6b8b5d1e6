package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/models"
	"storefront/internal/orders"
)

type OrderHandler struct {
	pipeline *orders.Pipeline
	log      zerolog.Logger
}

func NewOrderHandler(p *orders.Pipeline, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{pipeline: p, log: log}
}

// CreateOrder accepts an order. A stored order is a success even when the notification
// was not delivered; the response then carries a warning instead.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	res, err := h.pipeline.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if res.Delivery.Success {
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"order_id":      res.Order.ID,
			"telegram_sent": true,
			"message":       "order created",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"order_id":      res.Order.ID,
		"telegram_sent": false,
		"warning":       "order saved but the notification was not delivered",
		"error":         res.Delivery.Error,
	})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	all, err := h.pipeline.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": all})
}
