package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node of the catalog hierarchy. Subcategories are other
// categories referenced by id; a category listed as someone's subcategory is
// hidden from top-level listings.
type Category struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	Description      string      `json:"description,omitempty"`
	Image            string      `json:"image,omitempty"`
	Brands           []uuid.UUID `json:"brands"`
	Subcategories    []uuid.UUID `json:"subcategories"`
	HasSubcategories bool        `json:"has_subcategories"`
	FreezedAt        *time.Time  `json:"freezed_at,omitempty"`
	RestoredAt       *time.Time  `json:"restored_at,omitempty"`
	CreatedBy        uuid.UUID   `json:"created_by"`
	UpdatedBy        *uuid.UUID  `json:"updated_by,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Archived reports whether the category has been frozen.
func (c *Category) Archived() bool {
	return c.FreezedAt != nil
}

// HasSubcategory reports whether id is linked as a direct subcategory.
func (c *Category) HasSubcategory(id uuid.UUID) bool {
	for _, sub := range c.Subcategories {
		if sub == id {
			return true
		}
	}
	return false
}

// Brand is referenced by categories and products but owned by neither.
type Brand struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
