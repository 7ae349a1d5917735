package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"catalog/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products in storage order.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "failed to get all products")
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrProductNotFound, "product with ID %d", id)
		}
		return nil, errors.Wrapf(err, "failed to get product by ID %d", id)
	}
	return &product, nil
}

// Create inserts a new product. The generated ID is written back to product.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return errors.Wrap(err, "failed to create product")
	}
	return nil
}

// Update overwrites every column of an existing product with the values held
// by product, zero values included. Timestamps are written as given.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{ID: product.ID}).
		Select("*").
		Omit("id", "created_at").
		UpdateColumns(product)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update product %d", product.ID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrProductNotFound, "product with ID %d for update", product.ID)
	}
	return nil
}

// Delete removes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to delete product %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrProductNotFound, "product with ID %d for deletion", id)
	}
	return nil
}
