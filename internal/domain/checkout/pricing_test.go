package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/cart"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		TaxRate:               0.18,
		ShippingFee:           15000,
		FreeShippingThreshold: 500000,
	}
}

func snapshotWithSubtotal(subtotal int64) cart.Snapshot {
	return cart.Snapshot{
		Lines:    []cart.Line{{ID: "l1", ProductID: 1, Quantity: 1, UnitPrice: subtotal}},
		Subtotal: subtotal,
	}
}

func TestEstimateQuoteChargesShippingBelowThreshold(t *testing.T) {
	quote := EstimateQuote(snapshotWithSubtotal(200000), testPricing())

	assert.Equal(t, int64(200000), quote.Subtotal)
	assert.Equal(t, int64(15000), quote.ShippingFee)
	assert.Equal(t, int64(36000), quote.TaxAmount)
	assert.Equal(t, int64(251000), quote.TotalAmount)
}

func TestEstimateQuoteWaivesShippingAboveThreshold(t *testing.T) {
	quote := EstimateQuote(snapshotWithSubtotal(600000), testPricing())

	assert.Equal(t, int64(0), quote.ShippingFee)
	assert.Equal(t, int64(108000), quote.TaxAmount)
	assert.Equal(t, int64(708000), quote.TotalAmount)
}

func TestEstimateQuoteShippingChargedAtExactThreshold(t *testing.T) {
	quote := EstimateQuote(snapshotWithSubtotal(500000), testPricing())
	assert.Equal(t, int64(15000), quote.ShippingFee)
}

func TestEstimateQuoteEmptyCartIsAllZero(t *testing.T) {
	quote := EstimateQuote(cart.Snapshot{}, testPricing())

	assert.Equal(t, int64(0), quote.Subtotal)
	assert.Equal(t, int64(0), quote.ShippingFee)
	assert.Equal(t, int64(0), quote.TaxAmount)
	assert.Equal(t, int64(0), quote.TotalAmount)
}
