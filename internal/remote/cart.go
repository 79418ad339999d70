// internal/remote/cart.go
package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/govinda610/chacha-website/internal/domain/cart"
)

// remoteCartItem is the cart service's wire representation of a line
type remoteCartItem struct {
	ID        uint      `json:"id"`
	ProductID uint      `json:"product_id"`
	VariantID *uint     `json:"product_variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	AddedAt   time.Time `json:"added_at"`
}

type remoteCart struct {
	Items []remoteCartItem `json:"items"`
}

func (rc remoteCart) toLines() []cart.Line {
	lines := make([]cart.Line, 0, len(rc.Items))
	for _, item := range rc.Items {
		lines = append(lines, cart.Line{
			ID:        fmt.Sprintf("%d", item.ID),
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			AddedAt:   item.AddedAt,
		})
	}
	return lines
}

type upsertItemRequest struct {
	ProductID uint  `json:"product_id"`
	VariantID *uint `json:"product_variant_id,omitempty"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

// AccountCartBackend is the remote cart service bound to one authenticated
// identity. It implements both the store's Backend contract and the sync
// engine's Merger: the service sums quantities on (product, variant) when an
// upserted key already exists.
type AccountCartBackend struct {
	client *Client
	token  string
}

// NewAccountCartBackend creates a backend over the remote cart for a token
func NewAccountCartBackend(client *Client, token string) *AccountCartBackend {
	return &AccountCartBackend{client: client, token: token}
}

func (b *AccountCartBackend) Load(ctx context.Context) ([]cart.Line, error) {
	var resp remoteCart
	if err := b.client.do(ctx, http.MethodGet, "/cart", b.token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toLines(), nil
}

func (b *AccountCartBackend) Add(ctx context.Context, line cart.Line) ([]cart.Line, error) {
	req := upsertItemRequest{
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
	}
	var resp remoteCart
	if err := b.client.do(ctx, http.MethodPost, "/cart", b.token, req, &resp); err != nil {
		return nil, err
	}
	return resp.toLines(), nil
}

func (b *AccountCartBackend) SetQuantity(ctx context.Context, key cart.LineKey, quantity int) ([]cart.Line, error) {
	endpoint := fmt.Sprintf("/cart/items/%d%s", key.ProductID, variantQuery(key))
	var resp remoteCart
	body := map[string]int{"quantity": quantity}
	if err := b.client.do(ctx, http.MethodPut, endpoint, b.token, body, &resp); err != nil {
		return nil, err
	}
	return resp.toLines(), nil
}

func (b *AccountCartBackend) Remove(ctx context.Context, key cart.LineKey) ([]cart.Line, error) {
	endpoint := fmt.Sprintf("/cart/items/%d%s", key.ProductID, variantQuery(key))
	var resp remoteCart
	if err := b.client.do(ctx, http.MethodDelete, endpoint, b.token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toLines(), nil
}

func (b *AccountCartBackend) Clear(ctx context.Context) error {
	return b.client.do(ctx, http.MethodDelete, "/cart", b.token, nil, nil)
}

// MergeLine upserts one guest line into the account cart; quantities sum on
// an existing key
func (b *AccountCartBackend) MergeLine(ctx context.Context, line cart.Line) error {
	_, err := b.Add(ctx, line)
	return err
}

func variantQuery(key cart.LineKey) string {
	if key.VariantID == 0 {
		return ""
	}
	return fmt.Sprintf("?variant_id=%d", key.VariantID)
}
