// internal/domain/payment/result.go
package payment

// ResultKind tags the outcome of a gateway collection attempt. Exactly one
// outcome follows every opened gateway UI: a success callback, a dismissal,
// or silence past the collect timeout (treated as dismissal).
type ResultKind string

const (
	ResultSuccess   ResultKind = "success"
	ResultDismissed ResultKind = "dismissed"
	ResultTimedOut  ResultKind = "timed_out"
)

// Result is the tagged outcome the checkout state machine consumes. The
// payload of a success result is only a trigger for verification, never
// proof of payment.
type Result struct {
	Kind           ResultKind
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// Intent is the short-lived, backend-issued authorization handed to the
// gateway UI. It is produced per order and consumed exactly once.
type Intent struct {
	OrderID        uint   `json:"order_id"`
	GatewayOrderID string `json:"razorpay_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"razorpay_key"`
}
