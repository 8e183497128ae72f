package repository

import (
	"context"
	"errors"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/refset"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
	ErrProductNotFound       = errors.New("product not found")
	ErrBrandNotFound         = errors.New("brand not found")
	ErrBrandAlreadyExists    = errors.New("brand with this name already exists")
	ErrUnboundedFilter       = errors.New("filter must name at least one row")
)

// ArchiveScope selects rows by their freeze state.
type ArchiveScope int

const (
	ScopeAny ArchiveScope = iota
	ScopeActive
	ScopeArchived
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// Page requests one page of results. Number is 1-based; Size 0 returns every
// matching row. SortBy falls back to created_at when the column is not
// sortable.
type Page struct {
	Number int
	Size   int
	SortBy string
	Order  SortOrder
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// PageResult is one page of entities plus the total match count.
type PageResult[T any] struct {
	Items []*T `json:"items"`
	Total int  `json:"total"`
	Page  int  `json:"page"`
	Size  int  `json:"size"`
}

// CategoryFilter narrows category queries. Zero fields are ignored.
type CategoryFilter struct {
	ID        *uuid.UUID
	IDs       []uuid.UUID
	Name      string
	ExcludeID *uuid.UUID
	Scope     ArchiveScope
	Search    string
	// TopLevel drops categories linked as another category's subcategory.
	TopLevel bool
}

// CategoryUpdate is a partial update. Brands and Subcategories are set
// expressions evaluated by the store against the stored value.
type CategoryUpdate struct {
	Name             *string
	Slug             *string
	Description      *string
	Image            *string
	Brands           refset.Expr
	Subcategories    refset.Expr
	HasSubcategories *bool
	// SyncHasSubcategories derives has_subcategories from the updated
	// subcategory set.
	SyncHasSubcategories bool
	Freeze               *time.Time
	Restore              *time.Time
	UpdatedBy            uuid.UUID
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	FindOne(ctx context.Context, filter CategoryFilter) (*domain.Category, error)
	Find(ctx context.Context, filter CategoryFilter) ([]*domain.Category, error)
	Paginate(ctx context.Context, filter CategoryFilter, page Page) (*PageResult[domain.Category], error)
	Create(ctx context.Context, category *domain.Category) error
	UpdateOne(ctx context.Context, filter CategoryFilter, update CategoryUpdate) (*domain.Category, error)
	DeleteOne(ctx context.Context, filter CategoryFilter) (*domain.Category, error)
}

// CascadeRemover is implemented by stores that can delete a category and its
// products in one transaction.
type CascadeRemover interface {
	RemoveCategoryWithProducts(ctx context.Context, id uuid.UUID) (*domain.Category, int64, error)
}

// ProductFilter narrows product queries. Zero fields are ignored.
type ProductFilter struct {
	ID         *uuid.UUID
	IDs        []uuid.UUID
	CategoryID *uuid.UUID
	Scope      ArchiveScope
	Search     string
}

// Bounded reports whether the filter names specific rows or a category.
func (f ProductFilter) Bounded() bool {
	return f.ID != nil || len(f.IDs) > 0 || f.CategoryID != nil
}

// ProductUpdate is a partial product update. Nil fields are left untouched;
// ClearBrand unsets the brand and wins over BrandID.
type ProductUpdate struct {
	Name            *string
	Description     *string
	CategoryID      *uuid.UUID
	BrandID         *uuid.UUID
	ClearBrand      bool
	OriginalPrice   *float64
	DiscountPercent *float64
	SalePrice       *float64
	Stock           *int
	Images          *[]string
	Variants        *[]domain.Variant
	Freeze          *time.Time
	Restore         *time.Time
	UpdatedBy       uuid.UUID
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	FindOne(ctx context.Context, filter ProductFilter) (*domain.Product, error)
	Find(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Paginate(ctx context.Context, filter ProductFilter, page Page) (*PageResult[domain.Product], error)
	Create(ctx context.Context, product *domain.Product) error
	UpdateOne(ctx context.Context, filter ProductFilter, update ProductUpdate) (*domain.Product, error)
	DeleteOne(ctx context.Context, filter ProductFilter) (*domain.Product, error)
	DeleteMany(ctx context.Context, filter ProductFilter) (int64, error)
}

// BrandFilter narrows brand queries. Zero fields are ignored.
type BrandFilter struct {
	ID     *uuid.UUID
	IDs    []uuid.UUID
	Name   string
	Search string
}

// BrandRepository defines the interface for brand data access
type BrandRepository interface {
	FindOne(ctx context.Context, filter BrandFilter) (*domain.Brand, error)
	Find(ctx context.Context, filter BrandFilter) ([]*domain.Brand, error)
	Paginate(ctx context.Context, filter BrandFilter, page Page) (*PageResult[domain.Brand], error)
	Create(ctx context.Context, brand *domain.Brand) error
}

// IsNotFound reports whether err is one of the store's missing-row errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrBrandNotFound) ||
		errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
