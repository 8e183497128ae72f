// Package service holds the catalog lifecycle managers. Every operation takes
// an already-decoded command plus the acting user and returns the stored
// entity or a *domain.Error.
package service

import (
	"context"
	"errors"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/refset"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
)

// ListQuery selects one page of a listing.
type ListQuery struct {
	Page     int
	Size     int
	Search   string
	SortBy   string
	Order    repository.SortOrder
	Archived bool
}

// Paging clamps requested page sizes.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPaging is used when a service is built with a zero Paging.
var DefaultPaging = Paging{DefaultSize: 20, MaxSize: 100}

func (p Paging) orDefault() Paging {
	if p.DefaultSize <= 0 {
		p.DefaultSize = DefaultPaging.DefaultSize
	}
	if p.MaxSize <= 0 {
		p.MaxSize = DefaultPaging.MaxSize
	}
	return p
}

// page converts q into a repository page. A missing or zero page number means
// the first page.
func (p Paging) page(q ListQuery) repository.Page {
	size := q.Size
	if size <= 0 {
		size = p.DefaultSize
	}
	if size > p.MaxSize {
		size = p.MaxSize
	}
	number := q.Page
	if number <= 0 {
		number = 1
	}
	return repository.Page{Number: number, Size: size, SortBy: q.SortBy, Order: q.Order}
}

func scopeFor(archived bool) repository.ArchiveScope {
	if archived {
		return repository.ScopeArchived
	}
	return repository.ScopeActive
}

// storeFailure wraps unexpected repository errors, passing typed failures
// through untouched.
func storeFailure(op string, err error) error {
	if _, ok := domain.AsError(err); ok {
		return err
	}
	return domain.StoreFailure(op, err)
}

func categoryLookup(repo repository.CategoryRepository) refset.LookupFunc {
	return func(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
		found, err := repo.Find(ctx, repository.CategoryFilter{IDs: ids})
		if err != nil {
			return nil, err
		}
		out := make([]uuid.UUID, len(found))
		for i, c := range found {
			out[i] = c.ID
		}
		return out, nil
	}
}

func brandLookup(repo repository.BrandRepository) refset.LookupFunc {
	return func(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
		found, err := repo.Find(ctx, repository.BrandFilter{IDs: ids})
		if err != nil {
			return nil, err
		}
		out := make([]uuid.UUID, len(found))
		for i, b := range found {
			out[i] = b.ID
		}
		return out, nil
	}
}

// findCategory loads a category by id, translating a missing row to NotFound.
func findCategory(ctx context.Context, repo repository.CategoryRepository, filter repository.CategoryFilter, what string) (*domain.Category, error) {
	category, err := repo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, domain.NotFound("%s not found", what)
		}
		return nil, storeFailure("find "+what, err)
	}
	return category, nil
}

func ptr[T any](v T) *T {
	return &v
}
