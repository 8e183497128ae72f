package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const categoryColumns = `id, name, slug, description, image, brands, subcategories, has_subcategories,
	freezed_at, restored_at, created_by, updated_by, created_at, updated_at`

var categorySortFields = map[string]bool{
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	c := &domain.Category{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&c.Image,
		&c.Brands,
		&c.Subcategories,
		&c.HasSubcategories,
		&c.FreezedAt,
		&c.RestoredAt,
		&c.CreatedBy,
		&c.UpdatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func categoryConditions(q *query, f CategoryFilter) {
	if f.ID != nil {
		q.where("id = %s", q.arg(*f.ID))
	}
	if len(f.IDs) > 0 {
		q.where("id = ANY(%s::uuid[])", q.arg(f.IDs))
	}
	if f.Name != "" {
		q.where("name = %s", q.arg(f.Name))
	}
	if f.ExcludeID != nil {
		q.where("id <> %s", q.arg(*f.ExcludeID))
	}
	if f.Search != "" {
		p := q.arg(likePattern(f.Search))
		q.where("(name ILIKE %s OR slug ILIKE %s)", p, p)
	}
	if f.TopLevel {
		q.where("NOT EXISTS (SELECT 1 FROM categories parent WHERE categories.id = ANY(parent.subcategories))")
	}
	q.scope(f.Scope)
}

// Create inserts a new category. Names are unique among active categories.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, image, brands, subcategories,
			has_subcategories, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if category.Brands == nil {
		category.Brands = []uuid.UUID{}
	}
	if category.Subcategories == nil {
		category.Subcategories = []uuid.UUID{}
	}

	_, err := r.db.Exec(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.Image,
		category.Brands,
		category.Subcategories,
		category.HasSubcategories,
		category.CreatedBy,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// FindOne returns the first category matching filter.
func (r *categoryRepository) FindOne(ctx context.Context, filter CategoryFilter) (*domain.Category, error) {
	q := &query{}
	categoryConditions(q, filter)
	sql := "SELECT " + categoryColumns + " FROM categories" + q.whereClause() + " ORDER BY created_at DESC, id LIMIT 1"

	category, err := scanCategory(r.db.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return category, nil
}

// Find returns every category matching filter, newest first.
func (r *categoryRepository) Find(ctx context.Context, filter CategoryFilter) ([]*domain.Category, error) {
	q := &query{}
	categoryConditions(q, filter)
	sql := "SELECT " + categoryColumns + " FROM categories" + q.whereClause() + " ORDER BY created_at DESC, id"
	return r.list(ctx, sql, q.args)
}

// Paginate returns one page of matching categories and the total count.
func (r *categoryRepository) Paginate(ctx context.Context, filter CategoryFilter, page Page) (*PageResult[domain.Category], error) {
	q := &query{}
	categoryConditions(q, filter)
	where := q.whereClause()

	var total int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM categories"+where, q.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	sql := "SELECT " + categoryColumns + " FROM categories" + where + orderBy(page, categorySortFields) + q.limit(page)
	items, err := r.list(ctx, sql, q.args)
	if err != nil {
		return nil, err
	}
	return &PageResult[domain.Category]{Items: items, Total: total, Page: page.Number, Size: page.Size}, nil
}

func (r *categoryRepository) list(ctx context.Context, sql string, args []any) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// UpdateOne applies update to the category selected by filter and returns the
// stored result. Set expressions are evaluated by the database against the
// row's current value.
func (r *categoryRepository) UpdateOne(ctx context.Context, filter CategoryFilter, update CategoryUpdate) (*domain.Category, error) {
	if filter.ID == nil {
		return nil, ErrUnboundedFilter
	}

	q := &query{}
	if update.Name != nil {
		q.set("name", q.arg(*update.Name))
	}
	if update.Slug != nil {
		q.set("slug", q.arg(*update.Slug))
	}
	if update.Description != nil {
		q.set("description", q.arg(*update.Description))
	}
	if update.Image != nil {
		q.set("image", q.arg(*update.Image))
	}
	if update.Brands != nil {
		expr, err := q.setExpr(update.Brands, "brands")
		if err != nil {
			return nil, err
		}
		q.set("brands", expr)
	}
	if update.Subcategories != nil {
		expr, err := q.setExpr(update.Subcategories, "subcategories")
		if err != nil {
			return nil, err
		}
		q.set("subcategories", expr)
		if update.SyncHasSubcategories {
			q.set("has_subcategories", "cardinality("+expr+") > 0")
		}
	}
	if update.HasSubcategories != nil {
		q.set("has_subcategories", q.arg(*update.HasSubcategories))
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

	categoryConditions(q, filter)
	sql := "UPDATE categories SET " + q.setClause() + q.whereClause() + " RETURNING " + categoryColumns

	category, err := scanCategory(r.db.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrCategoryAlreadyExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// DeleteOne removes the category selected by filter and returns it.
func (r *categoryRepository) DeleteOne(ctx context.Context, filter CategoryFilter) (*domain.Category, error) {
	if filter.ID == nil {
		return nil, ErrUnboundedFilter
	}

	q := &query{}
	categoryConditions(q, filter)
	sql := "DELETE FROM categories" + q.whereClause() + " RETURNING " + categoryColumns

	category, err := scanCategory(r.db.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}
	return category, nil
}
