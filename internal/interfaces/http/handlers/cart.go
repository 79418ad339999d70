// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/session"
	"github.com/govinda610/chacha-website/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	sessions *session.Manager
	config   *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(sessions *session.Manager, cfg *config.Config) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		config:   cfg,
	}
}

// AddToCartRequest is the add-item payload
type AddToCartRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
	VariantID *uint `json:"variant_id,omitempty"`
}

// UpdateCartItemRequest is the set-quantity payload. Quantity zero removes
// the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// resolveSession binds the request to its session. The session id is echoed
// back so first-time visitors learn theirs.
func (h *CartHandler) resolveSession(c *gin.Context) *session.Session {
	userID, _ := middleware.GetUserIDFromContext(c)
	token := middleware.GetTokenFromContext(c)

	sess := h.sessions.Resolve(c.Request.Context(), c.GetHeader("X-Session-ID"), userID, token)
	c.Header("X-Session-ID", sess.ID)
	return sess
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sess := h.resolveSession(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    sess.Cart.Snapshot(),
	})
}

// RefreshCart handles POST /cart/refresh
func (h *CartHandler) RefreshCart(c *gin.Context) {
	sess := h.resolveSession(c)

	snap, err := sess.Cart.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart refreshed successfully",
		"data":    snap,
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	sess := h.resolveSession(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	snap, err := sess.Cart.AddItem(c.Request.Context(), req.ProductID, req.Quantity, req.VariantID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    snap,
	})
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	sess := h.resolveSession(c)

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	snap, err := sess.Cart.UpdateQuantity(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    snap,
	})
}

// RemoveCartItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	sess := h.resolveSession(c)

	snap, err := sess.Cart.RemoveItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    snap,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sess := h.resolveSession(c)

	if err := sess.Cart.Clear(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    sess.Cart.Snapshot(),
	})
}
