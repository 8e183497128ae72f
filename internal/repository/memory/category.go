package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
)

type categoryRepository struct {
	s *Store
}

func cloneCategory(c *domain.Category) *domain.Category {
	out := *c
	out.Brands = slices.Clone(c.Brands)
	out.Subcategories = slices.Clone(c.Subcategories)
	if out.Brands == nil {
		out.Brands = []uuid.UUID{}
	}
	if out.Subcategories == nil {
		out.Subcategories = []uuid.UUID{}
	}
	return &out
}

// isSubcategory reports whether id is linked under any category. Callers
// hold the lock.
func (r *categoryRepository) isSubcategory(id uuid.UUID) bool {
	for _, c := range r.s.categories {
		if c.HasSubcategory(id) {
			return true
		}
	}
	return false
}

func (r *categoryRepository) match(c *domain.Category, f repository.CategoryFilter) bool {
	if f.ID != nil && c.ID != *f.ID {
		return false
	}
	if !inIDs(f.IDs, c.ID) {
		return false
	}
	if f.Name != "" && c.Name != f.Name {
		return false
	}
	if f.ExcludeID != nil && c.ID == *f.ExcludeID {
		return false
	}
	if f.Search != "" && !containsFold(c.Name, f.Search) && !containsFold(c.Slug, f.Search) {
		return false
	}
	if f.TopLevel && r.isSubcategory(c.ID) {
		return false
	}
	return inScope(f.Scope, c.FreezedAt)
}

func (r *categoryRepository) matching(f repository.CategoryFilter) []*domain.Category {
	var out []*domain.Category
	for _, c := range r.s.categories {
		if r.match(c, f) {
			out = append(out, cloneCategory(c))
		}
	}
	return out
}

// activeNameTaken mirrors the unique index on active category names.
func (r *categoryRepository) activeNameTaken(name string, except uuid.UUID) bool {
	for _, c := range r.s.categories {
		if c.ID != except && c.FreezedAt == nil && c.Name == name {
			return true
		}
	}
	return false
}

func compareCategories(a, b *domain.Category, field string) int {
	var c int
	switch field {
	case "name":
		c = strings.Compare(a.Name, b.Name)
	case "updated_at":
		c = compareTime(a.UpdatedAt, b.UpdatedAt)
	default:
		c = compareTime(a.CreatedAt, b.CreatedAt)
	}
	return cmp.Or(c, compareIDs(a.ID, b.ID))
}

func (r *categoryRepository) FindOne(ctx context.Context, filter repository.CategoryFilter) (*domain.Category, error) {
	items, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrCategoryNotFound
	}
	return items[0], nil
}

func (r *categoryRepository) Find(ctx context.Context, filter repository.CategoryFilter) ([]*domain.Category, error) {
	page, err := r.Paginate(ctx, filter, repository.Page{})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *categoryRepository) Paginate(_ context.Context, filter repository.CategoryFilter, page repository.Page) (*repository.PageResult[domain.Category], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return paginate(r.matching(filter), page, compareCategories), nil
}

func (r *categoryRepository) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[category.ID]; ok {
		return repository.ErrCategoryAlreadyExists
	}
	if category.FreezedAt == nil && r.activeNameTaken(category.Name, category.ID) {
		return repository.ErrCategoryAlreadyExists
	}
	r.s.categories[category.ID] = cloneCategory(category)
	return nil
}

func (r *categoryRepository) UpdateOne(_ context.Context, filter repository.CategoryFilter, update repository.CategoryUpdate) (*domain.Category, error) {
	if filter.ID == nil {
		return nil, repository.ErrUnboundedFilter
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.categories[*filter.ID]
	if !ok || !r.match(stored, filter) {
		return nil, repository.ErrCategoryNotFound
	}

	c := cloneCategory(stored)
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Slug != nil {
		c.Slug = *update.Slug
	}
	if update.Description != nil {
		c.Description = *update.Description
	}
	if update.Image != nil {
		c.Image = *update.Image
	}
	if update.Brands != nil {
		c.Brands = update.Brands.Eval(c.Brands)
	}
	if update.Subcategories != nil {
		c.Subcategories = update.Subcategories.Eval(c.Subcategories)
		if update.SyncHasSubcategories {
			c.HasSubcategories = len(c.Subcategories) > 0
		}
	}
	if update.HasSubcategories != nil {
		c.HasSubcategories = *update.HasSubcategories
	}
	if update.Freeze != nil {
		c.FreezedAt = timePtr(*update.Freeze)
		c.RestoredAt = nil
	}
	if update.Restore != nil {
		c.RestoredAt = timePtr(*update.Restore)
		c.FreezedAt = nil
	}
	actor := update.UpdatedBy
	c.UpdatedBy = &actor
	c.UpdatedAt = r.s.now()

	if c.FreezedAt == nil && r.activeNameTaken(c.Name, c.ID) {
		return nil, repository.ErrCategoryAlreadyExists
	}

	r.s.categories[c.ID] = c
	return cloneCategory(c), nil
}

func (r *categoryRepository) DeleteOne(_ context.Context, filter repository.CategoryFilter) (*domain.Category, error) {
	if filter.ID == nil {
		return nil, repository.ErrUnboundedFilter
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.deleteLocked(filter)
}

func (r *categoryRepository) deleteLocked(filter repository.CategoryFilter) (*domain.Category, error) {
	stored, ok := r.s.categories[*filter.ID]
	if !ok || !r.match(stored, filter) {
		return nil, repository.ErrCategoryNotFound
	}
	delete(r.s.categories, stored.ID)
	return stored, nil
}

// RemoveCategoryWithProducts deletes the category and its products under one
// lock.
func (r *categoryRepository) RemoveCategoryWithProducts(_ context.Context, id uuid.UUID) (*domain.Category, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	category, err := r.deleteLocked(repository.CategoryFilter{ID: &id})
	if err != nil {
		return nil, 0, err
	}
	var n int64
	for pid, p := range r.s.products {
		if p.CategoryID == id {
			delete(r.s.products, pid)
			n++
		}
	}
	return category, n, nil
}
