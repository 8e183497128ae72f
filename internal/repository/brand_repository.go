package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-admin/internal/domain"

	"github.com/jackc/pgx/v5"
)

const brandColumns = `id, name, slug, created_by, created_at, updated_at`

var brandSortFields = map[string]bool{
	"name":       true,
	"created_at": true,
}

type brandRepository struct {
	db DBTX
}

// NewBrandRepository creates a new instance of BrandRepository
func NewBrandRepository(db DBTX) BrandRepository {
	return &brandRepository{db: db}
}

func scanBrand(row pgx.Row) (*domain.Brand, error) {
	b := &domain.Brand{}
	if err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func brandConditions(q *query, f BrandFilter) {
	if f.ID != nil {
		q.where("id = %s", q.arg(*f.ID))
	}
	if len(f.IDs) > 0 {
		q.where("id = ANY(%s::uuid[])", q.arg(f.IDs))
	}
	if f.Name != "" {
		q.where("name = %s", q.arg(f.Name))
	}
	if f.Search != "" {
		p := q.arg(likePattern(f.Search))
		q.where("(name ILIKE %s OR slug ILIKE %s)", p, p)
	}
}

// Create inserts a new brand. Brand names are globally unique.
func (r *brandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	query := `
		INSERT INTO brands (id, name, slug, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query, brand.ID, brand.Name, brand.Slug, brand.CreatedBy, brand.CreatedAt, brand.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBrandAlreadyExists
		}
		return fmt.Errorf("failed to create brand: %w", err)
	}
	return nil
}

func (r *brandRepository) FindOne(ctx context.Context, filter BrandFilter) (*domain.Brand, error) {
	q := &query{}
	brandConditions(q, filter)
	sql := "SELECT " + brandColumns + " FROM brands" + q.whereClause() + " ORDER BY name, id LIMIT 1"

	brand, err := scanBrand(r.db.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to find brand: %w", err)
	}
	return brand, nil
}

func (r *brandRepository) Find(ctx context.Context, filter BrandFilter) ([]*domain.Brand, error) {
	q := &query{}
	brandConditions(q, filter)
	sql := "SELECT " + brandColumns + " FROM brands" + q.whereClause() + " ORDER BY name, id"
	return r.list(ctx, sql, q.args)
}

func (r *brandRepository) Paginate(ctx context.Context, filter BrandFilter, page Page) (*PageResult[domain.Brand], error) {
	q := &query{}
	brandConditions(q, filter)
	where := q.whereClause()

	var total int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM brands"+where, q.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count brands: %w", err)
	}

	if page.SortBy == "" {
		page.SortBy, page.Order = "name", SortOrderAsc
	}
	sql := "SELECT " + brandColumns + " FROM brands" + where + orderBy(page, brandSortFields) + q.limit(page)
	items, err := r.list(ctx, sql, q.args)
	if err != nil {
		return nil, err
	}
	return &PageResult[domain.Brand]{Items: items, Total: total, Page: page.Number, Size: page.Size}, nil
}

func (r *brandRepository) list(ctx context.Context, sql string, args []any) ([]*domain.Brand, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := []*domain.Brand{}
	for rows.Next() {
		brand, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}
	return brands, nil
}
