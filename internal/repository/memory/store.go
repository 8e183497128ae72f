// Package memory is an in-process implementation of the catalog
// repositories. Each operation runs in one critical section, so set
// expressions are evaluated atomically against the stored value.
package memory

import (
	"slices"
	"strings"
	"sync"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
)

// Store holds every entity collection behind one lock.
type Store struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]*domain.Category
	products   map[uuid.UUID]*domain.Product
	brands     map[uuid.UUID]*domain.Brand
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		categories: make(map[uuid.UUID]*domain.Category),
		products:   make(map[uuid.UUID]*domain.Product),
		brands:     make(map[uuid.UUID]*domain.Brand),
		now:        time.Now,
	}
}

func (s *Store) Categories() repository.CategoryRepository {
	return &categoryRepository{s: s}
}

func (s *Store) Products() repository.ProductRepository {
	return &productRepository{s: s}
}

func (s *Store) Brands() repository.BrandRepository {
	return &brandRepository{s: s}
}

func inScope(scope repository.ArchiveScope, freezedAt *time.Time) bool {
	switch scope {
	case repository.ScopeActive:
		return freezedAt == nil
	case repository.ScopeArchived:
		return freezedAt != nil
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func inIDs(ids []uuid.UUID, id uuid.UUID) bool {
	return len(ids) == 0 || slices.Contains(ids, id)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// paginate sorts items and slices out the requested page.
func paginate[T any](items []*T, page repository.Page, less func(a, b *T, field string) int) *repository.PageResult[T] {
	field := page.SortBy
	desc := page.Order != repository.SortOrderAsc
	slices.SortStableFunc(items, func(a, b *T) int {
		c := less(a, b, field)
		if desc {
			return -c
		}
		return c
	})

	total := len(items)
	if page.Size > 0 {
		start := min(page.Offset(), total)
		end := min(start+page.Size, total)
		items = items[start:end]
	}
	return &repository.PageResult[T]{Items: items, Total: total, Page: page.Number, Size: page.Size}
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

func compareIDs(a, b uuid.UUID) int {
	return strings.Compare(a.String(), b.String())
}
