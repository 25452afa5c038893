package ports

import (
	"context"

	"github.com/99minutos/catalog-api/internal/core/domain"
)

// CreateProductInput carries a create request. Name and Price are pointers so
// the service can tell an absent field from a zero value.
type CreateProductInput struct {
	Name        *string  `validate:"omitnil,max=200"`
	Price       *float64 `validate:"omitnil,gte=0"`
	Description *string  `validate:"omitnil,max=2000"`
	Stock       *int     `validate:"omitnil,gte=0"`

	// IdempotencyKey, when set, makes retries of the same request return the
	// product created by the first attempt.
	IdempotencyKey string `validate:"max=128"`
}

// UpdateProductInput carries the fields to merge into an existing product.
type UpdateProductInput struct {
	Name        *string  `validate:"omitnil,min=1,max=200"`
	Price       *float64 `validate:"omitnil,gte=0"`
	Description *string  `validate:"omitnil,max=2000"`
	Stock       *int     `validate:"omitnil,gte=0"`
}

// ProductService defines the catalog use cases.
type ProductService interface {
	List(ctx context.Context) ([]*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Acknowledgement, error)
}
