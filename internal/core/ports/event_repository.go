package ports

import (
	"context"

	"github.com/99minutos/catalog-api/internal/core/domain"
)

// EventRepository persists the product audit trail.
type EventRepository interface {
	InsertEvent(ctx context.Context, event domain.ProductEvent) error
}

// EventPublisher hands product events to the audit pipeline. Publish must not
// block the caller.
type EventPublisher interface {
	Publish(event domain.ProductEvent)
}

// IdempotencyStore claims an Idempotency-Key before a create runs, so
// concurrent requests carrying the same key insert at most one product.
type IdempotencyStore interface {
	// Reserve claims key. reserved is true when the caller now owns it.
	// Otherwise productID is the product an earlier request stored, or empty
	// while that request is still in flight.
	Reserve(ctx context.Context, key string) (productID string, reserved bool, err error)
	// Complete points an owned key at the product it created.
	Complete(ctx context.Context, key, productID string) error
	// Release frees an owned key after a failed create.
	Release(ctx context.Context, key string) error
}
