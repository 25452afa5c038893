// Package memory provides a process-local product store. Records are lost on
// restart; it backs tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/99minutos/catalog-api/internal/core/domain"
	"github.com/99minutos/catalog-api/internal/core/ports"
)

// ProductRepository implements ports.ProductRepository with a guarded map.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]domain.Product)}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ports.ErrRecordNotFound
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, &p)
	}
	return out, nil
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *p
	stored.ID = id
	r.products[id] = stored
	return id, nil
}

func (r *ProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch, at time.Time) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ports.ErrRecordNotFound
	}
	patch.Apply(&p, at)
	r.products[id] = p
	return &p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ports.ErrRecordNotFound
	}
	delete(r.products, id)
	return nil
}
