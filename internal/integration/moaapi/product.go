package moaapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/moa-platform/checkout-service/internal/domain"
)

// ListProducts возвращает каталог OTT продуктов
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	c.log.Debug("Fetching product catalog")

	var products []domain.Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/products", "", nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	c.log.Debug("Fetched %d products", len(products))
	return products, nil
}

// GetProduct возвращает продукт по ID
func (c *Client) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	c.log.Debug("Fetching product %d", productID)

	var product domain.Product
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), "", nil, &product)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("failed to get product %d: %w", productID, err)
	}

	return product, nil
}
