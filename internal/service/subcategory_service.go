package service

import (
	"context"
	"errors"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/refset"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubcategoryService links categories under a parent category.
type SubcategoryService interface {
	Add(ctx context.Context, categoryID uuid.UUID, ids refset.Input, actor uuid.UUID) (*domain.Category, error)
	Remove(ctx context.Context, categoryID, subcategoryID uuid.UUID, actor uuid.UUID) (*domain.Category, error)
	Replace(ctx context.Context, categoryID, oldID, newID uuid.UUID, actor uuid.UUID) (*domain.Category, error)
}

type subcategoryService struct {
	categories repository.CategoryRepository
	logger     *zap.Logger
}

// NewSubcategoryService creates a new instance of SubcategoryService
func NewSubcategoryService(categories repository.CategoryRepository, logger *zap.Logger) SubcategoryService {
	return &subcategoryService{categories: categories, logger: logger}
}

// Add appends ids to the category's subcategories, keeping existing order and
// skipping ids already linked.
func (s *subcategoryService) Add(ctx context.Context, categoryID uuid.UUID, input refset.Input, actor uuid.UUID) (*domain.Category, error) {
	ids, err := input.IDs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.ValidationFailed("subcategory ids are required", map[string]string{"subcategory_ids": "required"})
	}

	if _, err := findCategory(ctx, s.categories, repository.CategoryFilter{ID: &categoryID}, "category"); err != nil {
		return nil, err
	}
	if err := refset.Verify(ctx, "subcategories", ids, categoryLookup(s.categories)); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == categoryID {
			return nil, domain.Conflict("a category cannot be its own subcategory")
		}
	}

	category, err := s.update(ctx, categoryID, repository.CategoryUpdate{
		Subcategories:    refset.Union{Base: refset.Field{}, Add: ids},
		HasSubcategories: ptr(true),
		UpdatedBy:        actor,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subcategories added",
		zap.String("category_id", categoryID.String()),
		zap.Int("count", len(ids)),
		zap.String("actor", actor.String()),
	)
	return category, nil
}

// Remove unlinks one subcategory. has_subcategories follows the remaining set.
func (s *subcategoryService) Remove(ctx context.Context, categoryID, subcategoryID uuid.UUID, actor uuid.UUID) (*domain.Category, error) {
	category, err := findCategory(ctx, s.categories, repository.CategoryFilter{ID: &categoryID}, "category")
	if err != nil {
		return nil, err
	}
	if _, err := findCategory(ctx, s.categories, repository.CategoryFilter{ID: &subcategoryID}, "subcategory"); err != nil {
		return nil, err
	}
	if !category.HasSubcategory(subcategoryID) {
		return nil, domain.Conflict("subcategory is not associated with this category")
	}

	category, err = s.update(ctx, categoryID, repository.CategoryUpdate{
		Subcategories:        refset.Difference{From: refset.Field{}, Remove: []uuid.UUID{subcategoryID}},
		SyncHasSubcategories: true,
		UpdatedBy:            actor,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subcategory removed",
		zap.String("category_id", categoryID.String()),
		zap.String("subcategory_id", subcategoryID.String()),
		zap.String("actor", actor.String()),
	)
	return category, nil
}

// Replace swaps oldID for newID in place.
func (s *subcategoryService) Replace(ctx context.Context, categoryID, oldID, newID uuid.UUID, actor uuid.UUID) (*domain.Category, error) {
	category, err := findCategory(ctx, s.categories, repository.CategoryFilter{ID: &categoryID}, "category")
	if err != nil {
		return nil, err
	}
	if _, err := findCategory(ctx, s.categories, repository.CategoryFilter{ID: &oldID}, "old subcategory"); err != nil {
		return nil, err
	}
	if _, err := findCategory(ctx, s.categories, repository.CategoryFilter{ID: &newID}, "new subcategory"); err != nil {
		return nil, err
	}
	if newID == categoryID {
		return nil, domain.Conflict("a category cannot be its own subcategory")
	}
	if !category.HasSubcategory(oldID) {
		return nil, domain.Conflict("old subcategory is not associated with this category")
	}
	if category.HasSubcategory(newID) {
		return nil, domain.Conflict("new subcategory is already associated with this category")
	}

	category, err = s.update(ctx, categoryID, repository.CategoryUpdate{
		Subcategories:    refset.Replace{From: refset.Field{}, Old: oldID, New: newID},
		HasSubcategories: ptr(true),
		UpdatedBy:        actor,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subcategory replaced",
		zap.String("category_id", categoryID.String()),
		zap.String("old_subcategory_id", oldID.String()),
		zap.String("new_subcategory_id", newID.String()),
		zap.String("actor", actor.String()),
	)
	return category, nil
}

func (s *subcategoryService) update(ctx context.Context, id uuid.UUID, update repository.CategoryUpdate) (*domain.Category, error) {
	category, err := s.categories.UpdateOne(ctx, repository.CategoryFilter{ID: &id}, update)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, domain.Conflict("category was removed while updating")
		}
		return nil, storeFailure("update subcategories", err)
	}
	return category, nil
}
