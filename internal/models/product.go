package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductStatus is the availability of a catalog item.
type ProductStatus string

const (
	StatusAvailable   ProductStatus = "available"
	StatusUnavailable ProductStatus = "unavailable"
)

// Product represents an item in the catalog.
type Product struct {
	ID          int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	ImageURL    *string         `json:"imageUrl" gorm:"column:image_url;type:varchar(255)"`
	Category    string          `json:"category" gorm:"type:varchar(255);not null"`
	Stock       int64           `json:"stock" gorm:"not null"`
	Status      ProductStatus   `json:"status" gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *Product) TableName() string {
	return "products"
}
