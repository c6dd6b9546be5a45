package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products and may be pinned to a locator.
type Category struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	LocatorID      *int64    `json:"locator_id,omitempty"`
	SubInventoryID *int64    `json:"sub_inventory_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CategoryRef is the short category form embedded in products.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a stock-keeping unit.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Category    *CategoryRef    `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InCategory reports whether the product belongs to the given category.
func (p *Product) InCategory(categoryID int64) bool {
	if p.CategoryID != nil && *p.CategoryID == categoryID {
		return true
	}
	return p.Category != nil && p.Category.ID == categoryID
}

// DefaultLowStockThreshold is the stock level below which products are flagged.
const DefaultLowStockThreshold = 20

// CategoryRequest is the body for creating or updating a category.
type CategoryRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=1000"`
	LocatorID      *int64 `json:"locator_id" validate:"omitempty,gt=0"`
	SubInventoryID *int64 `json:"sub_inventory_id" validate:"omitempty,gt=0"`
}

// ProductRequest is the body for creating or updating a product.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	CategoryID  *int64          `json:"category_id" validate:"omitempty,gt=0"`
}
