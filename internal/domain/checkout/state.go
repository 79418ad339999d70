// internal/domain/checkout/state.go
package checkout

// State is a step in the checkout state machine. Failed is absorbing and
// reachable from any non-terminal state; Cancelled is reachable only from
// AwaitingGatewayResult (user dismissal).
type State string

const (
	StateCollectingInfo        State = "collecting_info"
	StateInfoConfirmed         State = "info_confirmed"
	StateSelectingPayment      State = "selecting_payment"
	StateAwaitingGatewayResult State = "awaiting_gateway_result"
	StateVerifying             State = "verifying"
	StateCompleted             State = "completed"
	StateFailed                State = "failed"
	StateCancelled             State = "cancelled"
)

// IsTerminal reports whether the state machine has finished this attempt.
// Cancelled is terminal for the attempt but the order it produced stays
// pending and payable.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}

// Payment methods accepted at the selecting-payment step
const (
	MethodRazorpay       = "razorpay"
	MethodCashOnDelivery = "cod"
)

// RequiresGateway reports whether the method needs external authorization.
// Methods that do not bypass AwaitingGatewayResult and Verifying entirely.
func RequiresGateway(method string) bool {
	return method == MethodRazorpay
}

// ValidMethod reports whether the payment method is known
func ValidMethod(method string) bool {
	return method == MethodRazorpay || method == MethodCashOnDelivery
}
