// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// LineKey identifies a cart line by product and variant. Two lines with the
// same key never coexist in one cart; mutations on the same key merge.
type LineKey struct {
	ProductID uint
	VariantID uint // 0 when the product has no variant
}

// Line represents a single cart line. UnitPrice is captured in paise at the
// time the line is created and is not re-resolved afterwards.
type Line struct {
	ID        string    `json:"id"`
	ProductID uint      `json:"product_id"`
	VariantID *uint     `json:"product_variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	AddedAt   time.Time `json:"added_at"`
}

// Key returns the merge key for the line
func (l Line) Key() LineKey {
	key := LineKey{ProductID: l.ProductID}
	if l.VariantID != nil {
		key.VariantID = *l.VariantID
	}
	return key
}

// Total returns quantity * unit price
func (l Line) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Snapshot is a read-only copy of the cart state handed to subscribers and
// to the checkout flow. Version increases with every committed mutation.
type Snapshot struct {
	Lines    []Line `json:"items"`
	Subtotal int64  `json:"subtotal"`
	Version  uint64 `json:"version"`
}

// IsEmpty reports whether the snapshot has no lines
func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// TotalQuantity returns the summed quantity across all lines
func (s Snapshot) TotalQuantity() int {
	total := 0
	for _, line := range s.Lines {
		total += line.Quantity
	}
	return total
}

// FindLine returns the line with the given id, if present
func (s Snapshot) FindLine(lineID string) (Line, bool) {
	for _, line := range s.Lines {
		if line.ID == lineID {
			return line, true
		}
	}
	return Line{}, false
}

func subtotalOf(lines []Line) int64 {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.Total()
	}
	return subtotal
}

func copyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
