package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-admin/internal/domain"

	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, description, category_id, brand_id, original_price, discount_percent,
	sale_price, stock, sold_items, images, variants, freezed_at, restored_at, created_by, updated_by,
	created_at, updated_at`

var productSortFields = map[string]bool{
	"name":       true,
	"sale_price": true,
	"created_at": true,
	"stock":      true,
	"sold_items": true,
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.CategoryID,
		&p.BrandID,
		&p.OriginalPrice,
		&p.DiscountPercent,
		&p.SalePrice,
		&p.Stock,
		&p.SoldItems,
		&p.Images,
		&p.Variants,
		&p.FreezedAt,
		&p.RestoredAt,
		&p.CreatedBy,
		&p.UpdatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func productConditions(q *query, f ProductFilter) {
	if f.ID != nil {
		q.where("id = %s", q.arg(*f.ID))
	}
	if len(f.IDs) > 0 {
		q.where("id = ANY(%s::uuid[])", q.arg(f.IDs))
	}
	if f.CategoryID != nil {
		q.where("category_id = %s", q.arg(*f.CategoryID))
	}
	if f.Search != "" {
		p := q.arg(likePattern(f.Search))
		q.where("(name ILIKE %s OR description ILIKE %s)", p, p)
	}
	q.scope(f.Scope)
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, category_id, brand_id, original_price,
			discount_percent, sale_price, stock, sold_items, images, variants, created_by,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Variants == nil {
		product.Variants = []domain.Variant{}
	}

	_, err := r.db.Exec(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.CategoryID,
		product.BrandID,
		product.OriginalPrice,
		product.DiscountPercent,
		product.SalePrice,
		product.Stock,
		product.SoldItems,
		product.Images,
		product.Variants,
		product.CreatedBy,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindOne returns the first product matching filter.
func (r *productRepository) FindOne(ctx context.Context, filter ProductFilter) (*domain.Product, error) {
	q := &query{}
	productConditions(q, filter)
	sql := "SELECT " + productColumns + " FROM products" + q.whereClause() + " ORDER BY created_at DESC, id LIMIT 1"

	product, err := scanProduct(r.db.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}

// Find returns every product matching filter, newest first.
func (r *productRepository) Find(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	q := &query{}
	productConditions(q, filter)
	sql := "SELECT " + productColumns + " FROM products" + q.whereClause() + " ORDER BY created_at DESC, id"
	return r.list(ctx, sql, q.args)
}

// Paginate retrieves products with filtering, pagination, and sorting
func (r *productRepository) Paginate(ctx context.Context, filter ProductFilter, page Page) (*PageResult[domain.Product], error) {
	q := &query{}
	productConditions(q, filter)
	where := q.whereClause()

	var total int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM products"+where, q.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	sql := "SELECT " + productColumns + " FROM products" + where + orderBy(page, productSortFields) + q.limit(page)
	items, err := r.list(ctx, sql, q.args)
	if err != nil {
		return nil, err
	}
	return &PageResult[domain.Product]{Items: items, Total: total, Page: page.Number, Size: page.Size}, nil
}

func (r *productRepository) list(ctx context.Context, sql string, args []any) ([]*domain.Product, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// UpdateOne applies update to the product selected by filter and returns the
// stored result.
func (r *productRepository) UpdateOne(ctx context.Context, filter ProductFilter, update ProductUpdate) (*domain.Product, error) {
	if filter.ID == nil {
		return nil, ErrUnboundedFilter
	}

	q := &query{}
	if update.Name != nil {
		q.set("name", q.arg(*update.Name))
	}
	if update.Description != nil {
		q.set("description", q.arg(*update.Description))
	}
	if update.CategoryID != nil {
		q.set("category_id", q.arg(*update.CategoryID))
	}
	switch {
	case update.ClearBrand:
		q.set("brand_id", "NULL")
	case update.BrandID != nil:
		q.set("brand_id", q.arg(*update.BrandID))
	}
	if update.OriginalPrice != nil {
		q.set("original_price", q.arg(*update.OriginalPrice))
	}
	if update.DiscountPercent != nil {
		q.set("discount_percent", q.arg(*update.DiscountPercent))
	}
	if update.SalePrice != nil {
		q.set("sale_price", q.arg(*update.SalePrice))
	}
	if update.Stock != nil {
		q.set("stock", q.arg(*update.Stock))
	}
	if update.Images != nil {
		q.set("images", q.arg(*update.Images))
	}
	if update.Variants != nil {
		q.set("variants", q.arg(*update.Variants))
	}
	if update.Freeze != nil {
		q.set("freezed_at", q.arg(*update.Freeze))
		q.set("restored_at", "NULL")
	}
	if update.Restore != nil {
		q.set("restored_at", q.arg(*update.Restore))
		q.set("freezed_at", "NULL")
	}
	q.set("updated_by", q.arg(update.UpdatedBy))
	q.set("updated_at", "now()")

	productConditions(q, filter)
	sql := "UPDATE products SET " + q.setClause() + q.whereClause() + " RETURNING " + productColumns

	product, err := scanProduct(r.db.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeleteOne removes the product selected by filter and returns it.
func (r *productRepository) DeleteOne(ctx context.Context, filter ProductFilter) (*domain.Product, error) {
	if filter.ID == nil {
		return nil, ErrUnboundedFilter
	}

	q := &query{}
	productConditions(q, filter)
	sql := "DELETE FROM products" + q.whereClause() + " RETURNING " + productColumns

	product, err := scanProduct(r.db.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return product, nil
}

// DeleteMany removes every product matching filter. The filter must name an
// id or a category.
func (r *productRepository) DeleteMany(ctx context.Context, filter ProductFilter) (int64, error) {
	if !filter.Bounded() {
		return 0, ErrUnboundedFilter
	}

	q := &query{}
	productConditions(q, filter)

	tag, err := r.db.Exec(ctx, "DELETE FROM products"+q.whereClause(), q.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return tag.RowsAffected(), nil
}
