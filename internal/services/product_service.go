package services

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/validation"
)

// EventPublisher receives catalog change events after they are persisted.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	validator *validation.ProductValidator
	publisher EventPublisher
	now       func() time.Time
}

// Option configures a ProductService.
type Option func(*ProductService)

// WithPublisher sends change events to p after every successful mutation.
func WithPublisher(p EventPublisher) Option {
	return func(s *ProductService) {
		s.publisher = p
	}
}

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ProductService) {
		s.now = now
	}
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, validator *validation.ProductValidator, opts ...Option) *ProductService {
	s := &ProductService{
		repo:      repo,
		validator: validator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseID converts a path identifier into a product id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidIdentifier, "%q", raw)
	}
	return id, nil
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its raw path ID.
func (s *ProductService) GetProductByID(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates body as a complete product and stores it. It
// returns the generated ID.
func (s *ProductService) CreateProduct(ctx context.Context, body []byte) (int64, error) {
	input, fieldErrs := s.validator.Validate(body, validation.Full)
	if fieldErrs != nil {
		return 0, &ValidationError{Details: fieldErrs}
	}

	now := s.timestamp()
	product := models.Product{
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.ApplyTo(&product)

	if err := s.repo.Create(ctx, &product); err != nil {
		return 0, err
	}

	s.publish(ctx, models.NewProductEvent(models.EventProductCreated, product.ID, &product, now))
	return product.ID, nil
}

// UpdateProduct validates body as a partial product and merges the supplied
// fields onto the stored row. Omitted fields keep their value; UpdatedAt is
// always refreshed. It returns the full updated product.
func (s *ProductService) UpdateProduct(ctx context.Context, rawID string, body []byte) (*models.Product, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	input, fieldErrs := s.validator.Validate(body, validation.Partial)
	if fieldErrs != nil {
		return nil, &ValidationError{Details: fieldErrs}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	input.ApplyTo(product)
	product.UpdatedAt = s.nextUpdate(product.UpdatedAt)

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, models.NewProductEvent(models.EventProductUpdated, product.ID, product, product.UpdatedAt))
	return product, nil
}

// DeleteProduct removes a product by its raw path ID.
func (s *ProductService) DeleteProduct(ctx context.Context, rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, models.NewProductEvent(models.EventProductDeleted, id, nil, s.timestamp()))
	return nil
}

// timestamp is millisecond precision, the finest every supported store keeps.
func (s *ProductService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// nextUpdate returns the current timestamp, or one tick past previous when
// the clock has not moved beyond it.
func (s *ProductService) nextUpdate(previous time.Time) time.Time {
	now := s.timestamp()
	if !now.After(previous) {
		now = previous.Add(time.Millisecond)
	}
	return now
}

func (s *ProductService) publish(ctx context.Context, event models.ProductEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":     event.Type,
			"productID": event.ProductID,
		}).Warn("failed to publish product event")
	}
}
