// internal/remote/address.go
package remote

import (
	"context"
	"net/http"

	"github.com/govinda610/chacha-website/internal/domain/checkout"
)

// AddressClient talks to the address service for one session's credentials
type AddressClient struct {
	client *Client
	token  string
}

// NewAddressClient creates an address client bound to a token (empty for
// guest checkouts; the service files guest addresses against the order)
func NewAddressClient(client *Client, token string) *AddressClient {
	return &AddressClient{client: client, token: token}
}

// CreateAddress persists an address and returns its record. Addresses are
// immutable once an order references them; edits create new records.
func (c *AddressClient) CreateAddress(ctx context.Context, input checkout.AddressInput) (checkout.Address, error) {
	var saved checkout.Address
	if err := c.client.do(ctx, http.MethodPost, "/users/addresses", c.token, input, &saved); err != nil {
		return checkout.Address{}, err
	}
	return saved, nil
}
