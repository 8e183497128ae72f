package memory

import (
	"cmp"
	"context"
	"strings"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"
)

type brandRepository struct {
	s *Store
}

func matchBrand(b *domain.Brand, f repository.BrandFilter) bool {
	if f.ID != nil && b.ID != *f.ID {
		return false
	}
	if !inIDs(f.IDs, b.ID) {
		return false
	}
	if f.Name != "" && b.Name != f.Name {
		return false
	}
	if f.Search != "" && !containsFold(b.Name, f.Search) && !containsFold(b.Slug, f.Search) {
		return false
	}
	return true
}

func compareBrands(a, b *domain.Brand, field string) int {
	var c int
	switch field {
	case "created_at":
		c = compareTime(a.CreatedAt, b.CreatedAt)
	default:
		c = strings.Compare(a.Name, b.Name)
	}
	return cmp.Or(c, compareIDs(a.ID, b.ID))
}

func (r *brandRepository) FindOne(ctx context.Context, filter repository.BrandFilter) (*domain.Brand, error) {
	items, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrBrandNotFound
	}
	return items[0], nil
}

func (r *brandRepository) Find(ctx context.Context, filter repository.BrandFilter) ([]*domain.Brand, error) {
	page, err := r.Paginate(ctx, filter, repository.Page{Order: repository.SortOrderAsc})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *brandRepository) Paginate(_ context.Context, filter repository.BrandFilter, page repository.Page) (*repository.PageResult[domain.Brand], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var items []*domain.Brand
	for _, b := range r.s.brands {
		if matchBrand(b, filter) {
			copied := *b
			items = append(items, &copied)
		}
	}
	if page.SortBy == "" {
		page.Order = repository.SortOrderAsc
	}
	return paginate(items, page, compareBrands), nil
}

func (r *brandRepository) Create(_ context.Context, brand *domain.Brand) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, b := range r.s.brands {
		if b.Name == brand.Name {
			return repository.ErrBrandAlreadyExists
		}
	}
	copied := *brand
	r.s.brands[brand.ID] = &copied
	return nil
}
