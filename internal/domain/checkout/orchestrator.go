// internal/domain/checkout/orchestrator.go
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/govinda610/chacha-website/internal/domain/cart"
	"github.com/govinda610/chacha-website/internal/domain/order"
	"github.com/govinda610/chacha-website/internal/domain/payment"
	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// CartAccess is the slice of the cart store the orchestrator needs: a frozen
// snapshot at place-order time and clearing after a completed purchase.
type CartAccess interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context) error
}

// AddressSaver persists a checkout address and returns its record
type AddressSaver interface {
	CreateAddress(ctx context.Context, input AddressInput) (Address, error)
}

// OrderAPI creates and cancels orders on the remote order service
type OrderAPI interface {
	Create(ctx context.Context, req order.CreateRequest) (*order.Order, error)
	Cancel(ctx context.Context, orderID uint) (*order.Order, error)
}

// PaymentFlow is the gateway handshake surface, implemented by the payment
// bridge
type PaymentFlow interface {
	CreateIntent(ctx context.Context, orderID uint) (payment.Intent, error)
	Verify(ctx context.Context, orderID uint, result payment.Result) error
}

// PlacedOrder is returned from place-order and retry: the created order plus
// the gateway intent when external authorization is required.
type PlacedOrder struct {
	Order  *order.Order    `json:"order"`
	Intent *payment.Intent `json:"intent,omitempty"`
}

// Session is a read-only view of one checkout attempt
type Session struct {
	State          State        `json:"state"`
	Address        *Address     `json:"address,omitempty"`
	SavedAddressID uint         `json:"saved_address_id,omitempty"`
	PaymentMethod  string       `json:"payment_method,omitempty"`
	Order          *order.Order `json:"order,omitempty"`
}

// Orchestrator drives one checkout attempt from address capture to a
// terminal state. Each step is gated on completion of the previous one; a
// failed step never silently advances.
type Orchestrator struct {
	mu sync.Mutex

	state         State
	address       *Address
	lastInput     AddressInput
	contact       *order.GuestContact
	authenticated bool
	method        string
	ord           *order.Order
	frozen        cart.Snapshot
	verifyFailed  bool
	dismissTimer  *time.Timer

	cart           CartAccess
	addresses      AddressSaver
	orders         OrderAPI
	payments       PaymentFlow
	collectTimeout time.Duration
	log            *logrus.Entry
}

// NewOrchestrator starts a checkout attempt at the address step
func NewOrchestrator(cartAccess CartAccess, addresses AddressSaver, orders OrderAPI, payments PaymentFlow, authenticated bool, collectTimeout time.Duration, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		state:          StateCollectingInfo,
		authenticated:  authenticated,
		cart:           cartAccess,
		addresses:      addresses,
		orders:         orders,
		payments:       payments,
		collectTimeout: collectTimeout,
		log:            log,
	}
}

// State returns the current checkout state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Session returns a view of the attempt for presentation
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := Session{
		State:         o.state,
		Address:       o.address,
		PaymentMethod: o.method,
		Order:         o.ord,
	}
	if o.address != nil {
		sess.SavedAddressID = o.address.ID
	}
	return sess
}

// SubmitInfo validates and persists the shipping address, plus contact
// details for guest checkouts. Invalid input reports field-level errors and
// leaves the state unchanged. Resubmitting unchanged fields keeps the
// already-saved address; changed fields create a new address record that
// supersedes the old identifier.
func (o *Orchestrator) SubmitInfo(ctx context.Context, input AddressInput, contact *order.GuestContact) error {
	o.mu.Lock()
	if o.state != StateCollectingInfo {
		o.mu.Unlock()
		return apperrors.New(apperrors.KindConflict, "address can only be submitted while collecting info")
	}

	errs := input.Validate()
	if !o.authenticated {
		errs = append(errs, ValidateContact(contact)...)
	}
	if len(errs) > 0 {
		o.mu.Unlock()
		return errs
	}

	reuse := o.address != nil && equalInput(input, o.lastInput)
	o.mu.Unlock()

	if !reuse {
		saved, err := o.addresses.CreateAddress(ctx, input)
		if err != nil {
			return apperrors.Wrap(apperrors.KindOf(err), "failed to save address", err)
		}

		o.mu.Lock()
		if o.state != StateCollectingInfo {
			o.mu.Unlock()
			return apperrors.New(apperrors.KindConflict, "checkout advanced while saving address")
		}
		o.address = &saved
		o.lastInput = input
		o.mu.Unlock()
	}

	o.mu.Lock()
	o.contact = contact
	o.transitionLocked(StateInfoConfirmed)
	// Confirmation advances to payment selection automatically.
	o.transitionLocked(StateSelectingPayment)
	o.mu.Unlock()

	return nil
}

// EditInfo returns to the address step without discarding the already-saved
// address identifier
func (o *Orchestrator) EditInfo() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateInfoConfirmed && o.state != StateSelectingPayment {
		return apperrors.New(apperrors.KindConflict, "cannot edit address at this step")
	}

	o.transitionLocked(StateCollectingInfo)
	return nil
}

// PlaceOrder freezes the cart snapshot into an order and, for gateway
// methods, produces a payment intent. The order's lines and totals are fixed
// from this instant; later cart mutations do not touch it.
func (o *Orchestrator) PlaceOrder(ctx context.Context, method string) (*PlacedOrder, error) {
	o.mu.Lock()
	if o.state != StateSelectingPayment {
		o.mu.Unlock()
		return nil, apperrors.New(apperrors.KindConflict, "order can only be placed from payment selection")
	}
	if !ValidMethod(method) {
		o.mu.Unlock()
		return nil, apperrors.FieldErrors{}.Add("payment_method", "unknown payment method")
	}
	if o.address == nil {
		o.mu.Unlock()
		return nil, apperrors.New(apperrors.KindConflict, "no saved address for this checkout")
	}

	snap := o.cart.Snapshot()
	if snap.IsEmpty() && o.ord == nil {
		o.mu.Unlock()
		return nil, apperrors.New(apperrors.KindValidation, "cart is empty")
	}

	o.method = method
	existing := o.ord
	addressID := o.address.ID
	contact := o.contact
	authenticated := o.authenticated
	o.mu.Unlock()

	var ord *order.Order
	if existing != nil && existing.IsPayable() && existing.PaymentMethod == method {
		// A prior attempt already created this order; pay it again rather
		// than creating a duplicate.
		ord = existing
	} else {
		if existing != nil && existing.IsPayable() {
			// The order service created the pending order under the old
			// method. It is cancelled there before the replacement exists.
			if _, err := o.orders.Cancel(ctx, existing.ID); err != nil {
				return nil, apperrors.Wrap(apperrors.KindOf(err), "failed to cancel pending order", err)
			}

			o.mu.Lock()
			o.ord = nil
			o.mu.Unlock()
		}

		req := order.CreateRequest{
			AddressID:     addressID,
			PaymentMethod: method,
			Items:         freezeLines(snap),
		}
		if !authenticated {
			req.GuestContact = contact
		}

		created, err := o.orders.Create(ctx, req)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindOf(err), "failed to create order", err)
		}
		ord = created

		o.mu.Lock()
		o.ord = ord
		o.frozen = snap
		o.mu.Unlock()

		o.log.WithFields(logrus.Fields{
			"order_id":     ord.ID,
			"order_number": ord.OrderNumber,
			"total":        ord.TotalAmount,
			"method":       method,
		}).Info("order created")
	}

	if !RequiresGateway(method) {
		o.mu.Lock()
		o.transitionLocked(StateCompleted)
		o.mu.Unlock()

		if err := o.cart.Clear(ctx); err != nil {
			o.log.WithError(err).Warn("failed to clear cart after order completion")
		}
		return &PlacedOrder{Order: ord}, nil
	}

	return o.openGateway(ctx, ord)
}

// Abandon releases the attempt so the session can start a fresh checkout.
// An order created by the attempt stays pending on the order service; its
// expiry is the backend's concern. An attempt whose gateway outcome is still
// undecided cannot be abandoned; dismissal or the collect timeout resolves
// it first.
func (o *Orchestrator) Abandon() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateAwaitingGatewayResult, StateVerifying:
		return apperrors.New(apperrors.KindConflict, "gateway outcome still undecided")
	}

	o.stopDismissTimerLocked()
	return nil
}

// RetryPayment re-runs the gateway handshake against the same order after a
// dismissal or a verification failure. No duplicate order is created.
func (o *Orchestrator) RetryPayment(ctx context.Context) (*PlacedOrder, error) {
	o.mu.Lock()
	retriable := o.state == StateCancelled || (o.state == StateFailed && o.verifyFailed)
	ord := o.ord
	o.mu.Unlock()

	if !retriable {
		return nil, apperrors.New(apperrors.KindConflict, "no retriable payment attempt")
	}
	if ord == nil || !ord.IsPayable() {
		return nil, apperrors.New(apperrors.KindConflict, "order is not payable")
	}

	return o.openGateway(ctx, ord)
}

// openGateway requests an intent and moves to awaiting the gateway outcome
func (o *Orchestrator) openGateway(ctx context.Context, ord *order.Order) (*PlacedOrder, error) {
	intent, err := o.payments.CreateIntent(ctx, ord.ID)
	if err != nil {
		// The order stays pending; a later attempt reuses it.
		return nil, apperrors.Wrap(apperrors.KindOf(err), "failed to initiate payment", err)
	}

	o.mu.Lock()
	o.transitionLocked(StateAwaitingGatewayResult)
	o.armDismissTimerLocked()
	o.mu.Unlock()

	return &PlacedOrder{Order: ord, Intent: &intent}, nil
}

// HandleGatewayResult consumes the tagged gateway outcome. Success triggers
// mandatory server-side verification; dismissal and timeout cancel the
// attempt leaving the order pending and payable.
func (o *Orchestrator) HandleGatewayResult(ctx context.Context, result payment.Result) error {
	o.mu.Lock()
	if o.state != StateAwaitingGatewayResult {
		o.mu.Unlock()
		return apperrors.New(apperrors.KindConflict, "no gateway result expected")
	}
	o.stopDismissTimerLocked()
	ord := o.ord

	switch result.Kind {
	case payment.ResultDismissed, payment.ResultTimedOut:
		// User-initiated, not an error. The order survives for a retry.
		o.transitionLocked(StateCancelled)
		o.mu.Unlock()
		return nil

	case payment.ResultSuccess:
		o.transitionLocked(StateVerifying)
		o.mu.Unlock()

	default:
		o.mu.Unlock()
		return apperrors.New(apperrors.KindValidation, "unknown gateway result")
	}

	if err := o.payments.Verify(ctx, ord.ID, result); err != nil {
		o.mu.Lock()
		o.verifyFailed = true
		o.ord.PaymentStatus = order.PaymentStatusFailed
		o.transitionLocked(StateFailed)
		o.mu.Unlock()
		// Reported distinctly so the user retries payment, not the whole
		// checkout.
		return apperrors.Wrap(apperrors.KindVerificationFailed, "payment verification failed", err)
	}

	o.mu.Lock()
	o.ord.PaymentStatus = order.PaymentStatusPaid
	if o.ord.Status.CanTransitionTo(order.StatusConfirmed) {
		o.ord.Status = order.StatusConfirmed
	}
	o.transitionLocked(StateCompleted)
	o.mu.Unlock()

	if err := o.cart.Clear(ctx); err != nil {
		o.log.WithError(err).Warn("failed to clear cart after verified payment")
	}

	return nil
}

// FrozenSnapshot returns the cart snapshot captured at order creation
func (o *Orchestrator) FrozenSnapshot() cart.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frozen
}

func (o *Orchestrator) transitionLocked(next State) {
	o.log.WithFields(logrus.Fields{
		"from": o.state,
		"to":   next,
	}).Debug("checkout transition")
	o.state = next
}

func (o *Orchestrator) armDismissTimerLocked() {
	o.stopDismissTimerLocked()
	o.dismissTimer = time.AfterFunc(o.collectTimeout, func() {
		// Silence from the gateway counts as dismissal.
		_ = o.HandleGatewayResult(context.Background(), payment.Result{Kind: payment.ResultTimedOut})
	})
}

func (o *Orchestrator) stopDismissTimerLocked() {
	if o.dismissTimer != nil {
		o.dismissTimer.Stop()
		o.dismissTimer = nil
	}
}

func freezeLines(snap cart.Snapshot) []order.ItemRequest {
	items := make([]order.ItemRequest, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, order.ItemRequest{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return items
}
