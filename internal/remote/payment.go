// internal/remote/payment.go
package remote

import (
	"context"
	"net/http"

	"github.com/govinda610/chacha-website/internal/domain/payment"
	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// PaymentClient talks to the backend's payment endpoints: intent creation
// and signature verification. The backend holds the gateway secret; this
// tier never sees it.
type PaymentClient struct {
	client *Client
	token  string
}

// NewPaymentClient creates a payment client bound to a token
func NewPaymentClient(client *Client, token string) *PaymentClient {
	return &PaymentClient{client: client, token: token}
}

type createIntentRequest struct {
	OrderID uint `json:"order_id"`
}

// CreateIntent asks the backend for a gateway order covering orderID
func (c *PaymentClient) CreateIntent(ctx context.Context, orderID uint) (payment.Intent, error) {
	var intent payment.Intent
	req := createIntentRequest{OrderID: orderID}
	if err := c.client.do(ctx, http.MethodPost, "/payments/create-order", c.token, req, &intent); err != nil {
		return payment.Intent{}, err
	}
	return intent, nil
}

type verifyResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// Verify submits the gateway callback payload for HMAC validation against
// the intent. A rejection is a verification failure, distinct from generic
// payment errors, so callers can direct the user to retry payment only.
func (c *PaymentClient) Verify(ctx context.Context, req payment.VerifyRequest) error {
	var resp verifyResponse
	err := c.client.do(ctx, http.MethodPost, "/payments/verify", c.token, req, &resp)
	if err != nil {
		if apperrors.Is(err, apperrors.KindValidation) {
			return apperrors.Wrap(apperrors.KindVerificationFailed, "signature rejected", err)
		}
		return err
	}

	if resp.Status != "success" {
		return apperrors.New(apperrors.KindVerificationFailed, "verification did not pass")
	}

	return nil
}
