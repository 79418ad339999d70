// internal/domain/order/entity.go
package order

import (
	"time"
)

// Status represents the order status owned by the remote order service.
// Transitions are forward-only; a cancelled order is never resurrected.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// CanTransitionTo reports whether moving to next respects the forward-only
// lifecycle. Cancellation is allowed from any non-terminal state; nothing
// leaves cancelled or delivered.
func (s Status) CanTransitionTo(next Status) bool {
	if s == StatusCancelled || s == StatusDelivered {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt > cur
}

// IsTerminal reports whether no further status transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusDelivered
}

// Item is a frozen copy of a cart line at submission time. Cart mutations
// after order creation never touch it.
type Item struct {
	ID         uint   `json:"id"`
	ProductID  uint   `json:"product_id"`
	VariantID  *uint  `json:"variant_id,omitempty"`
	Name       string `json:"product_name"`
	SKU        string `json:"sku"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	TotalPrice int64  `json:"total_price"`
}

// Order mirrors the remote order service's representation. All amounts are
// server-computed paise; the client never recomputes them.
type Order struct {
	ID            uint          `json:"id"`
	OrderNumber   string        `json:"order_number"`
	AddressID     uint          `json:"address_id"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`

	Subtotal       int64 `json:"subtotal"`
	ShippingFee    int64 `json:"shipping_fee"`
	TaxAmount      int64 `json:"tax_amount"`
	DiscountAmount int64 `json:"discount_amount"`
	TotalAmount    int64 `json:"total_amount"`

	Items []Item `json:"items"`

	CreatedAt time.Time `json:"created_at"`
}

// IsPayable reports whether a payment attempt may run against the order
func (o *Order) IsPayable() bool {
	return o.PaymentStatus != PaymentStatusPaid && !o.Status.IsTerminal()
}

// GuestContact carries the contact fields required for unauthenticated
// checkouts
type GuestContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateRequest is the payload sent to the remote order service. Items are
// the cart snapshot frozen at place-order time.
type CreateRequest struct {
	AddressID     uint          `json:"address_id"`
	PaymentMethod string        `json:"payment_method"`
	Items         []ItemRequest `json:"items"`
	GuestContact  *GuestContact `json:"guest_contact,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

// ItemRequest is one frozen line in a create request
type ItemRequest struct {
	ProductID uint  `json:"product_id"`
	VariantID *uint `json:"variant_id,omitempty"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}
