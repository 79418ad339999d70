// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/checkout"
	"github.com/govinda610/chacha-website/internal/domain/order"
	"github.com/govinda610/chacha-website/internal/domain/payment"
	"github.com/govinda610/chacha-website/internal/domain/session"
	"github.com/govinda610/chacha-website/internal/interfaces/http/middleware"
	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// CheckoutHandler drives the checkout flow over HTTP. Each endpoint maps to
// one state-machine transition; the state machine itself rejects calls that
// arrive out of order.
type CheckoutHandler struct {
	sessions *session.Manager
	config   *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(sessions *session.Manager, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		config:   cfg,
	}
}

// SubmitInfoRequest carries the shipping address plus contact details for
// guest checkouts
type SubmitInfoRequest struct {
	Address checkout.AddressInput `json:"address"`
	Contact *order.GuestContact   `json:"contact,omitempty"`
}

// PlaceOrderRequest selects the payment method
type PlaceOrderRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// GatewayResultRequest is posted by the gateway UI when it closes: either a
// success callback with the signed payment identifiers, or a dismissal.
type GatewayResultRequest struct {
	Status           string `json:"status" binding:"required"`
	GatewayOrderID   string `json:"razorpay_order_id,omitempty"`
	GatewayPaymentID string `json:"razorpay_payment_id,omitempty"`
	Signature        string `json:"razorpay_signature,omitempty"`
}

func (h *CheckoutHandler) resolve(c *gin.Context) (*session.Session, *checkout.Orchestrator) {
	userID, _ := middleware.GetUserIDFromContext(c)
	token := middleware.GetTokenFromContext(c)

	sess := h.sessions.Resolve(c.Request.Context(), c.GetHeader("X-Session-ID"), userID, token)
	c.Header("X-Session-ID", sess.ID)
	return sess, h.sessions.EnsureCheckout(sess)
}

// GetCheckout handles GET /checkout
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	sess, co := h.resolve(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout state retrieved successfully",
		"data": gin.H{
			"session": co.Session(),
			"quote":   checkout.EstimateQuote(sess.Cart.Snapshot(), h.config.Pricing),
		},
	})
}

// GetQuote handles GET /checkout/quote
func (h *CheckoutHandler) GetQuote(c *gin.Context) {
	sess, _ := h.resolve(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Quote estimated successfully",
		"data":    checkout.EstimateQuote(sess.Cart.Snapshot(), h.config.Pricing),
	})
}

// SubmitInfo handles POST /checkout/info
func (h *CheckoutHandler) SubmitInfo(c *gin.Context) {
	_, co := h.resolve(c)

	var req SubmitInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := co.SubmitInfo(c.Request.Context(), req.Address, req.Contact); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Shipping info saved successfully",
		"data":    co.Session(),
	})
}

// EditInfo handles POST /checkout/info/edit
func (h *CheckoutHandler) EditInfo(c *gin.Context) {
	_, co := h.resolve(c)

	if err := co.EditInfo(); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout returned to info step",
		"data":    co.Session(),
	})
}

// PlaceOrder handles POST /checkout/place
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	_, co := h.resolve(c)

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	placed, err := co.PlaceOrder(c.Request.Context(), req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order placed successfully",
		"data":    placed,
	})
}

// GatewayResult handles POST /checkout/gateway-result
func (h *CheckoutHandler) GatewayResult(c *gin.Context) {
	_, co := h.resolve(c)

	var req GatewayResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result := payment.Result{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.GatewayPaymentID,
		Signature:      req.Signature,
	}
	switch req.Status {
	case "success":
		result.Kind = payment.ResultSuccess
	case "dismissed":
		result.Kind = payment.ResultDismissed
	default:
		writeError(c, apperrors.New(apperrors.KindValidation, "status must be success or dismissed"))
		return
	}

	if err := co.HandleGatewayResult(c.Request.Context(), result); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Gateway result processed successfully",
		"data":    co.Session(),
	})
}

// AbandonCheckout handles POST /checkout/abandon. It drops the session's
// attempt without starting a replacement, so it resolves the session directly
// instead of going through EnsureCheckout.
func (h *CheckoutHandler) AbandonCheckout(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	token := middleware.GetTokenFromContext(c)

	sess := h.sessions.Resolve(c.Request.Context(), c.GetHeader("X-Session-ID"), userID, token)
	c.Header("X-Session-ID", sess.ID)

	if err := h.sessions.AbandonCheckout(sess); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout abandoned successfully",
	})
}

// RetryPayment handles POST /checkout/retry
func (h *CheckoutHandler) RetryPayment(c *gin.Context) {
	_, co := h.resolve(c)

	placed, err := co.RetryPayment(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment retry started successfully",
		"data":    placed,
	})
}
