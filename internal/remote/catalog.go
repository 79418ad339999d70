// internal/remote/catalog.go
package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// CatalogClient resolves product pricing from the catalog service. Catalog
// retrieval and search are external collaborators; only the price lookup at
// add-to-cart time matters here.
type CatalogClient struct {
	client *Client
}

// NewCatalogClient creates a catalog client
func NewCatalogClient(client *Client) *CatalogClient {
	return &CatalogClient{client: client}
}

type catalogProduct struct {
	ID           uint             `json:"id"`
	Name         string           `json:"name"`
	SellingPrice int64            `json:"selling_price"`
	IsActive     bool             `json:"is_active"`
	Variants     []catalogVariant `json:"variants,omitempty"`
}

type catalogVariant struct {
	ID    uint  `json:"id"`
	Price int64 `json:"price"`
}

// ResolvePrice returns the current unit price in paise for a product or one
// of its variants
func (c *CatalogClient) ResolvePrice(ctx context.Context, productID uint, variantID *uint) (int64, error) {
	var prod catalogProduct
	endpoint := fmt.Sprintf("/products/%d", productID)
	if err := c.client.do(ctx, http.MethodGet, endpoint, "", nil, &prod); err != nil {
		return 0, err
	}

	if !prod.IsActive {
		return 0, apperrors.New(apperrors.KindValidation, "product is not available")
	}

	if variantID == nil {
		return prod.SellingPrice, nil
	}

	for _, variant := range prod.Variants {
		if variant.ID == *variantID {
			if variant.Price > 0 {
				return variant.Price, nil
			}
			return prod.SellingPrice, nil
		}
	}

	return 0, apperrors.New(apperrors.KindNotFound, "product variant not found")
}
