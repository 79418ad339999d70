// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/interfaces/http/middleware"
	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
	"github.com/govinda610/chacha-website/internal/remote"
)

// OrderHandler exposes order history for authenticated users. Orders live on
// the remote order service; this is a thin pass-through with the caller's
// token.
type OrderHandler struct {
	client *remote.Client
	config *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(client *remote.Client, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		client: client,
		config: cfg,
	}
}

func (h *OrderHandler) orders(c *gin.Context) (*remote.OrderClient, bool) {
	token := middleware.GetTokenFromContext(c)
	if token == "" {
		writeError(c, apperrors.New(apperrors.KindAuthorization, "authentication required"))
		return nil, false
	}
	return remote.NewOrderClient(h.client, token), true
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	client, ok := h.orders(c)
	if !ok {
		return
	}

	orders, err := client.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	client, ok := h.orders(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		writeError(c, apperrors.New(apperrors.KindValidation, "invalid order ID"))
		return
	}

	ord, err := client.Get(c.Request.Context(), uint(orderID))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    ord,
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	client, ok := h.orders(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		writeError(c, apperrors.New(apperrors.KindValidation, "invalid order ID"))
		return
	}

	ord, err := client.Cancel(c.Request.Context(), uint(orderID))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    ord,
	})
}
