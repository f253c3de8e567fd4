// backend/internal/domain/product/repository_port.go
package product

import "context"

// Endpoint is the remote resource API for products.
type Endpoint interface {
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, payload Payload) (Product, error)
	Update(ctx context.Context, id string, payload Payload) (Product, error)
}
