// internal/remote/order.go
package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/govinda610/chacha-website/internal/domain/order"
)

// OrderClient talks to the order service for one session's credentials
type OrderClient struct {
	client *Client
	token  string
}

// NewOrderClient creates an order client bound to a token
func NewOrderClient(client *Client, token string) *OrderClient {
	return &OrderClient{client: client, token: token}
}

// Create submits a new order. The response carries the server-computed
// subtotal, shipping, tax and total; those amounts are authoritative.
func (c *OrderClient) Create(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	var created order.Order
	if err := c.client.do(ctx, http.MethodPost, "/orders", c.token, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Get fetches an order by id
func (c *OrderClient) Get(ctx context.Context, orderID uint) (*order.Order, error) {
	var ord order.Order
	endpoint := fmt.Sprintf("/orders/%d", orderID)
	if err := c.client.do(ctx, http.MethodGet, endpoint, c.token, nil, &ord); err != nil {
		return nil, err
	}
	return &ord, nil
}

// List fetches the session user's order history
func (c *OrderClient) List(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	if err := c.client.do(ctx, http.MethodGet, "/orders", c.token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Cancel cancels a pending order
func (c *OrderClient) Cancel(ctx context.Context, orderID uint) (*order.Order, error) {
	var ord order.Order
	endpoint := fmt.Sprintf("/orders/%d/cancel", orderID)
	if err := c.client.do(ctx, http.MethodPost, endpoint, c.token, nil, &ord); err != nil {
		return nil, err
	}
	return &ord, nil
}
