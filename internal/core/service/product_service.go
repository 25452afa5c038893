package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/catalog-api/internal/core/domain"
	"github.com/99minutos/catalog-api/internal/core/ports"
	"github.com/99minutos/catalog-api/internal/pkg/validation"
)

const errNameAndPriceRequired = "name and price are required"

// Polling of an Idempotency-Key another request holds: about two seconds.
const (
	defaultPendingInterval = 50 * time.Millisecond
	defaultPendingAttempts = 40
)

// ProductService guards the product collection with input validation and
// existence checks. It keeps no state between calls.
type ProductService struct {
	repo        ports.ProductRepository
	idempotency ports.IdempotencyStore // optional
	events      ports.EventPublisher   // optional
	validate    *validation.Validator
	logger      zerolog.Logger
	now         func() time.Time

	pendingInterval time.Duration
	pendingAttempts int
}

// ProductOption configures optional collaborators of a ProductService.
type ProductOption func(*ProductService)

// WithIdempotencyStore enables Idempotency-Key handling on Create.
func WithIdempotencyStore(store ports.IdempotencyStore) ProductOption {
	return func(s *ProductService) { s.idempotency = store }
}

// WithEventPublisher sends an audit event after every successful mutation.
func WithEventPublisher(p ports.EventPublisher) ProductOption {
	return func(s *ProductService) { s.events = p }
}

// WithPendingPolling sets how often and how many times Create re-checks a
// key that another request is still processing.
func WithPendingPolling(interval time.Duration, attempts int) ProductOption {
	return func(s *ProductService) {
		s.pendingInterval = interval
		s.pendingAttempts = attempts
	}
}

// WithProductClock replaces the time source. Used by tests.
func WithProductClock(now func() time.Time) ProductOption {
	return func(s *ProductService) { s.now = now }
}

func NewProductService(repo ports.ProductRepository, logger zerolog.Logger, opts ...ProductOption) *ProductService {
	s := &ProductService{
		repo:     repo,
		validate: validation.New(),
		logger:   logger.With().Str("service", "product").Logger(),
		now:      time.Now,

		pendingInterval: defaultPendingInterval,
		pendingAttempts: defaultPendingAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every product in store order.
func (s *ProductService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

// Get returns the product with the given id.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// Create validates input and inserts a new product. Name and price must be
// present; stock defaults to zero. With an idempotency key, the key is claimed
// before the insert so concurrent retries produce a single product.
func (s *ProductService) Create(ctx context.Context, input ports.CreateProductInput) (*domain.Product, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" || input.Price == nil {
		return nil, domain.InvalidInput(errNameAndPriceRequired)
	}
	if err := s.validate.Validate(&input); err != nil {
		return nil, domain.InvalidInput(err.Error())
	}

	key := input.IdempotencyKey
	owned := false
	if key != "" && s.idempotency != nil {
		existing, claimed, err := s.claim(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		owned = claimed
	}

	now := s.timestamp()
	p := &domain.Product{
		Name:      *input.Name,
		Price:     *input.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}

	id, err := s.repo.Insert(ctx, p)
	if err != nil {
		if owned {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.Warn().Err(relErr).Msg("failed to release idempotency key")
			}
		}
		return nil, domain.Internal(err)
	}
	p.ID = id

	if owned {
		if err := s.idempotency.Complete(ctx, key, id); err != nil {
			s.logger.Warn().Err(err).Str("product_id", id).Msg("failed to store idempotency key")
		}
	}

	s.publish(ctx, id, domain.ActionCreated, now)
	return p, nil
}

// Update merges the submitted fields into an existing product and refreshes
// its updatedAt. Omitted fields keep their stored value.
func (s *ProductService) Update(ctx context.Context, id string, input ports.UpdateProductInput) (*domain.Product, error) {
	if err := s.validate.Validate(&input); err != nil {
		return nil, domain.InvalidInput(err.Error())
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, domain.InvalidInput("name must not be blank")
	}

	now := s.timestamp()
	patch := domain.ProductPatch{
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		Stock:       input.Stock,
	}

	p, err := s.repo.Update(ctx, id, patch, now)
	if err != nil {
		return nil, translate(err)
	}

	s.publish(ctx, id, domain.ActionUpdated, now)
	return p, nil
}

// Delete removes the product and returns a confirmation, not the entity.
func (s *ProductService) Delete(ctx context.Context, id string) (*domain.Acknowledgement, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, translate(err)
	}

	s.publish(ctx, id, domain.ActionDeleted, s.timestamp())
	return &domain.Acknowledgement{Message: "product deleted successfully"}, nil
}

// claim reserves key for this request. It returns the product an earlier
// request created under the same key, or owned=true when the caller must
// insert. While another request holds the key it polls, then gives up with
// ErrRequestInProgress. Store failures are logged and the create proceeds
// without idempotency.
func (s *ProductService) claim(ctx context.Context, key string) (*domain.Product, bool, error) {
	for attempt := 0; ; attempt++ {
		id, reserved, err := s.idempotency.Reserve(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Msg("idempotency reserve failed, creating anyway")
			return nil, false, nil
		}
		if reserved {
			return nil, true, nil
		}

		if id != "" {
			p, err := s.repo.FindByID(ctx, id)
			switch {
			case err == nil:
				s.logger.Info().Str("product_id", id).Msg("idempotent replay")
				return p, false, nil
			case errors.Is(err, ports.ErrRecordNotFound):
				// Deleted since; this request creates anew and repoints the key.
				s.logger.Debug().Str("product_id", id).Msg("idempotent product no longer available")
				return nil, true, nil
			default:
				return nil, false, domain.Internal(err)
			}
		}

		if attempt >= s.pendingAttempts {
			return nil, false, domain.ErrRequestInProgress
		}
		select {
		case <-ctx.Done():
			return nil, false, domain.Internal(ctx.Err())
		case <-time.After(s.pendingInterval):
		}
	}
}

// timestamp is the current instant at the millisecond precision the store
// keeps, so a response and a later read of the same record agree.
func (s *ProductService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *ProductService) publish(ctx context.Context, id string, action domain.ProductAction, at time.Time) {
	if s.events == nil {
		return
	}
	event := domain.ProductEvent{ProductID: id, Action: action, OccurredAt: at}
	if who, ok := domain.IdentityFromContext(ctx); ok {
		event.Actor = who.Email
	}
	s.events.Publish(event)
}

// translate maps repository errors onto the domain taxonomy.
func translate(err error) error {
	if errors.Is(err, ports.ErrRecordNotFound) {
		return domain.ErrProductNotFound
	}
	return domain.Internal(err)
}
