package ports

import (
	"context"
	"errors"
	"time"

	"github.com/99minutos/catalog-api/internal/core/domain"
)

// ErrRecordNotFound is returned by a ProductRepository when no record matches
// the given key. The service layer translates it into domain.ErrProductNotFound.
var ErrRecordNotFound = errors.New("record not found")

// ProductRepository is the document collection backing the catalog.
type ProductRepository interface {
	// FindByID returns ErrRecordNotFound when the id is unknown.
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// List returns every product in store order.
	List(ctx context.Context) ([]*domain.Product, error)
	// Insert stores p and returns the identifier the store assigned.
	Insert(ctx context.Context, p *domain.Product) (string, error)
	// Update merges patch into the record and returns it as stored.
	// Returns ErrRecordNotFound without writing when the id is unknown.
	Update(ctx context.Context, id string, patch domain.ProductPatch, at time.Time) (*domain.Product, error)
	// Delete returns ErrRecordNotFound when the id is unknown.
	Delete(ctx context.Context, id string) error
}
