package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog
type Product struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name,omitempty"`
	Description     string     `json:"description,omitempty"`
	CategoryID      uuid.UUID  `json:"category_id"`
	BrandID         *uuid.UUID `json:"brand_id,omitempty"`
	OriginalPrice   float64    `json:"original_price"`
	DiscountPercent float64    `json:"discount_percent"`
	SalePrice       float64    `json:"sale_price"`
	Stock           int        `json:"stock"`
	SoldItems       int        `json:"sold_items"`
	Images          []string   `json:"images"`
	Variants        []Variant  `json:"variants"`
	FreezedAt       *time.Time `json:"freezed_at,omitempty"`
	RestoredAt      *time.Time `json:"restored_at,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	UpdatedBy       *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Archived reports whether the product has been frozen.
func (p *Product) Archived() bool {
	return p.FreezedAt != nil
}

// Variant is a priced, stocked configuration of a product such as a size or
// colour combination.
type Variant struct {
	SKU             string            `json:"sku,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	OriginalPrice   float64           `json:"original_price"`
	DiscountPercent float64           `json:"discount_percent"`
	SalePrice       float64           `json:"sale_price"`
	Stock           int               `json:"stock"`
}
