// internal/domain/payment/bridge.go
package payment

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// GatewayAPI is the backend's payment surface: intent creation and
// server-side signature verification.
type GatewayAPI interface {
	CreateIntent(ctx context.Context, orderID uint) (Intent, error)
	Verify(ctx context.Context, req VerifyRequest) error
}

// VerifyRequest carries the success callback's payload back to the backend
// for cryptographic validation against the intent.
type VerifyRequest struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	OrderID        uint   `json:"order_id"`
}

// Opener opens the processor's collection UI for an intent and delivers the
// outcome on the returned channel. Implementations deliver at most one
// result; the bridge owns the timeout.
type Opener interface {
	Open(ctx context.Context, intent Intent) <-chan Result
}

// NoopOpener is used when the collection UI runs outside this process and
// its outcome arrives through another channel; Collect reports dismissal.
type NoopOpener struct{}

// Open returns an already-closed result channel
func (NoopOpener) Open(_ context.Context, _ Intent) <-chan Result {
	ch := make(chan Result)
	close(ch)
	return ch
}

// Bridge encapsulates the three-message handshake with the external payment
// processor: request an intent, open the collection UI, submit the result
// for verification. A success callback is never trusted on its own;
// verification is mandatory and authoritative.
type Bridge struct {
	api            GatewayAPI
	opener         Opener
	collectTimeout time.Duration
	log            *logrus.Entry
}

// NewBridge creates a payment gateway bridge
func NewBridge(api GatewayAPI, opener Opener, collectTimeout time.Duration, log *logrus.Entry) *Bridge {
	return &Bridge{
		api:            api,
		opener:         opener,
		collectTimeout: collectTimeout,
		log:            log,
	}
}

// CreateIntent requests a payment intent for an order from the backend
func (b *Bridge) CreateIntent(ctx context.Context, orderID uint) (Intent, error) {
	if orderID == 0 {
		return Intent{}, apperrors.New(apperrors.KindValidation, "invalid order ID")
	}

	intent, err := b.api.CreateIntent(ctx, orderID)
	if err != nil {
		return Intent{}, apperrors.Wrap(apperrors.KindOf(err), "failed to create payment intent", err)
	}

	b.log.WithFields(logrus.Fields{
		"order_id":         orderID,
		"gateway_order_id": intent.GatewayOrderID,
		"amount":           intent.Amount,
	}).Info("payment intent created")

	return intent, nil
}

// Collect opens the gateway UI and waits for its single outcome. Silence
// past the collect timeout and context cancellation both count as dismissal
// by the user.
func (b *Bridge) Collect(ctx context.Context, intent Intent) Result {
	results := b.opener.Open(ctx, intent)

	timer := time.NewTimer(b.collectTimeout)
	defer timer.Stop()

	select {
	case result, ok := <-results:
		if !ok {
			return Result{Kind: ResultDismissed, GatewayOrderID: intent.GatewayOrderID}
		}
		return result
	case <-timer.C:
		b.log.WithField("gateway_order_id", intent.GatewayOrderID).Warn("gateway collection timed out")
		return Result{Kind: ResultTimedOut, GatewayOrderID: intent.GatewayOrderID}
	case <-ctx.Done():
		return Result{Kind: ResultDismissed, GatewayOrderID: intent.GatewayOrderID}
	}
}

// Verify submits a success result for server-side signature validation.
// Only a pass may finalize the order.
func (b *Bridge) Verify(ctx context.Context, orderID uint, result Result) error {
	if result.Kind != ResultSuccess {
		return apperrors.New(apperrors.KindValidation, "only success results can be verified")
	}

	req := VerifyRequest{
		GatewayOrderID: result.GatewayOrderID,
		PaymentID:      result.PaymentID,
		Signature:      result.Signature,
		OrderID:        orderID,
	}

	if err := b.api.Verify(ctx, req); err != nil {
		b.log.WithFields(logrus.Fields{
			"order_id":   orderID,
			"payment_id": result.PaymentID,
		}).Warn("payment verification rejected")
		return apperrors.Wrap(apperrors.KindOf(err), "payment verification failed", err)
	}

	b.log.WithFields(logrus.Fields{
		"order_id":   orderID,
		"payment_id": result.PaymentID,
	}).Info("payment verified")

	return nil
}
