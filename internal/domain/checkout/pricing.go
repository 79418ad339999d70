// internal/domain/checkout/pricing.go
package checkout

import (
	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/cart"
)

// Quote is a display-only pricing estimate for the current cart. The order
// service computes the authoritative totals at order creation; the two can
// diverge and the server always wins.
type Quote struct {
	Subtotal    int64 `json:"subtotal"`
	ShippingFee int64 `json:"shipping_fee"`
	TaxAmount   int64 `json:"tax_amount"`
	TotalAmount int64 `json:"total_amount"`
}

// EstimateQuote prices a cart snapshot with GST and the flat shipping fee,
// waived above the free-shipping threshold.
func EstimateQuote(snap cart.Snapshot, pricing config.PricingConfig) Quote {
	quote := Quote{Subtotal: snap.Subtotal}

	if snap.Subtotal > 0 && snap.Subtotal <= pricing.FreeShippingThreshold {
		quote.ShippingFee = pricing.ShippingFee
	}

	quote.TaxAmount = int64(float64(snap.Subtotal) * pricing.TaxRate)
	quote.TotalAmount = quote.Subtotal + quote.ShippingFee + quote.TaxAmount

	return quote
}
