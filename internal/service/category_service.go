package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/refset"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCategoryCommand carries a validated create request.
type CreateCategoryCommand struct {
	Name          string
	Description   string
	Image         string
	Brands        refset.Input
	Subcategories refset.Input
	// HasSubcategories applies only when no subcategories are given.
	HasSubcategories *bool
}

// UpdateCategoryCommand is a partial update. Brands are added and
// RemoveBrands removed against the stored set; a present Subcategories input
// (even an empty one) replaces the stored list.
type UpdateCategoryCommand struct {
	Name             *string
	Description      *string
	Image            *string
	Brands           refset.Input
	RemoveBrands     refset.Input
	Subcategories    refset.Input
	HasSubcategories *bool
}

// RemoveResult reports a category removal. CascadeErr is set when the
// category was deleted but deleting its products failed; the removal itself
// still succeeded.
type RemoveResult struct {
	Category        *domain.Category `json:"category"`
	ProductsDeleted int64            `json:"products_deleted"`
	CascadeErr      error            `json:"-"`
}

// CategoryWithProducts is a category plus one page of its products.
type CategoryWithProducts struct {
	Category *domain.Category                      `json:"category"`
	Products *repository.PageResult[domain.Product] `json:"products"`
}

// CategoryService defines the interface for category lifecycle operations
type CategoryService interface {
	Create(ctx context.Context, cmd CreateCategoryCommand, actor uuid.UUID) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCategoryCommand, actor uuid.UUID) (*domain.Category, error)
	Freeze(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Category, error)
	Restore(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Category, error)
	Remove(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*RemoveResult, error)
	List(ctx context.Context, q ListQuery) (*repository.PageResult[domain.Category], error)
	Get(ctx context.Context, id uuid.UUID, archived bool) (*domain.Category, error)
	GetWithProducts(ctx context.Context, id uuid.UUID, q ListQuery) (*CategoryWithProducts, error)
}

type categoryService struct {
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	products   repository.ProductRepository
	paging     Paging
	logger     *zap.Logger
	now        func() time.Time
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	products repository.ProductRepository,
	paging Paging,
	logger *zap.Logger,
) CategoryService {
	return &categoryService{
		categories: categories,
		brands:     brands,
		products:   products,
		paging:     paging.orDefault(),
		logger:     logger,
		now:        time.Now,
	}
}

// Longest accepted category name and description.
const (
	maxCategoryName        = 26
	maxCategoryDescription = 2000
)

// checkCategoryText reports overlong name or description as a validation
// failure. Nil values are not checked.
func checkCategoryText(name, description *string) error {
	fields := map[string]string{}
	if name != nil && utf8.RuneCountInString(*name) > maxCategoryName {
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxCategoryName)
	}
	if description != nil && utf8.RuneCountInString(*description) > maxCategoryDescription {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxCategoryDescription)
	}
	if len(fields) > 0 {
		return domain.ValidationFailed("invalid category", fields)
	}
	return nil
}

// Create adds a category. Any category already holding the name blocks the
// create; the message tells an archived holder from an active one.
func (s *categoryService) Create(ctx context.Context, cmd CreateCategoryCommand, actor uuid.UUID) (*domain.Category, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, domain.ValidationFailed("category name is required", map[string]string{"name": "required"})
	}
	if err := checkCategoryText(&name, &cmd.Description); err != nil {
		return nil, err
	}

	holders, err := s.categories.Find(ctx, repository.CategoryFilter{Name: name})
	if err != nil {
		return nil, storeFailure("check category name", err)
	}
	if len(holders) > 0 {
		for _, c := range holders {
			if !c.Archived() {
				return nil, domain.Conflict("category name already exists")
			}
		}
		return nil, domain.Conflict("category name duplicates an archived category")
	}

	subcategories, err := cmd.Subcategories.IDs()
	if err != nil {
		return nil, err
	}
	if err := refset.Verify(ctx, "subcategories", subcategories, categoryLookup(s.categories)); err != nil {
		return nil, err
	}

	brands, err := cmd.Brands.IDs()
	if err != nil {
		return nil, err
	}
	if err := refset.Verify(ctx, "brands", brands, brandLookup(s.brands)); err != nil {
		return nil, err
	}

	if brands == nil {
		brands = []uuid.UUID{}
	}
	if subcategories == nil {
		subcategories = []uuid.UUID{}
	}

	hasSubcategories := len(subcategories) > 0
	if !hasSubcategories && cmd.HasSubcategories != nil {
		hasSubcategories = *cmd.HasSubcategories
	}

	now := s.now().UTC()
	id := uuid.New()
	category := &domain.Category{
		ID:               id,
		Name:             name,
		Slug:             domain.SlugFor(name, id),
		Description:      cmd.Description,
		Image:            cmd.Image,
		Brands:           brands,
		Subcategories:    subcategories,
		HasSubcategories: hasSubcategories,
		CreatedBy:        actor,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, domain.Conflict("category name already exists")
		}
		return nil, storeFailure("create category", err)
	}

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("name", category.Name),
		zap.String("actor", actor.String()),
	)
	return category, nil
}

// Update applies a partial update. Brand changes are sent to the store as a
// set expression so concurrent updates do not overwrite each other.
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, cmd UpdateCategoryCommand, actor uuid.UUID) (*domain.Category, error) {
	if _, err := findCategory(ctx, s.categories, repository.CategoryFilter{ID: &id}, "category"); err != nil {
		return nil, err
	}

	if err := checkCategoryText(nil, cmd.Description); err != nil {
		return nil, err
	}

	update := repository.CategoryUpdate{
		Description: cmd.Description,
		Image:       cmd.Image,
		UpdatedBy:   actor,
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return nil, domain.ValidationFailed("category name must not be empty", map[string]string{"name": "required"})
		}
		if err := checkCategoryText(&name, nil); err != nil {
			return nil, err
		}
		taken, err := s.categories.Find(ctx, repository.CategoryFilter{Name: name, ExcludeID: &id})
		if err != nil {
			return nil, storeFailure("check category name", err)
		}
		if len(taken) > 0 {
			return nil, domain.Conflict("category already exists")
		}
		update.Name = &name
		update.Slug = ptr(domain.SlugFor(name, id))
	}

	if cmd.Brands.Present() || cmd.RemoveBrands.Present() {
		add, err := cmd.Brands.IDs()
		if err != nil {
			return nil, err
		}
		remove, err := cmd.RemoveBrands.IDs()
		if err != nil {
			return nil, err
		}
		if err := refset.Verify(ctx, "brands", add, brandLookup(s.brands)); err != nil {
			return nil, err
		}
		if delta := refset.NewDelta(add, remove); !delta.Empty() {
			update.Brands = delta.Expr()
		}
	}

	if cmd.Subcategories.Present() {
		subcategories, err := cmd.Subcategories.IDs()
		if err != nil {
			return nil, err
		}
		for _, sub := range subcategories {
			if sub == id {
				return nil, domain.Conflict("a category cannot be its own subcategory")
			}
		}
		if err := refset.Verify(ctx, "subcategories", subcategories, categoryLookup(s.categories)); err != nil {
			return nil, err
		}
		update.Subcategories = refset.Literal(subcategories)
		if cmd.HasSubcategories == nil {
			update.HasSubcategories = ptr(len(subcategories) > 0)
		}
	}
	if cmd.HasSubcategories != nil {
		update.HasSubcategories = cmd.HasSubcategories
	}

	category, err := s.categories.UpdateOne(ctx, repository.CategoryFilter{ID: &id}, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, domain.Conflict("category was removed while updating")
		case errors.Is(err, repository.ErrCategoryAlreadyExists):
			return nil, domain.Conflict("category already exists")
		}
		return nil, storeFailure("update category", err)
	}

	s.logger.Info("Category updated",
		zap.String("category_id", id.String()),
		zap.String("actor", actor.String()),
	)
	return category, nil
}

// Freeze archives the category. Freezing an archived category refreshes the
// timestamp.
func (s *categoryService) Freeze(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Category, error) {
	now := s.now().UTC()
	category, err := s.categories.UpdateOne(ctx, repository.CategoryFilter{ID: &id}, repository.CategoryUpdate{
		Freeze:    &now,
		UpdatedBy: actor,
	})
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, domain.NotFound("category not found")
		}
		return nil, storeFailure("freeze category", err)
	}

	s.logger.Info("Category frozen",
		zap.String("category_id", id.String()),
		zap.String("actor", actor.String()),
	)
	return category, nil
}

// Restore reactivates an archived category.
func (s *categoryService) Restore(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Category, error) {
	now := s.now().UTC()
	category, err := s.categories.UpdateOne(ctx, repository.CategoryFilter{ID: &id, Scope: repository.ScopeArchived}, repository.CategoryUpdate{
		Restore:   &now,
		UpdatedBy: actor,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, domain.NotFound("no archived category matches")
		case errors.Is(err, repository.ErrCategoryAlreadyExists):
			return nil, domain.Conflict("an active category already uses this name")
		}
		return nil, storeFailure("restore category", err)
	}

	s.logger.Info("Category restored",
		zap.String("category_id", id.String()),
		zap.String("actor", actor.String()),
	)
	return category, nil
}

// Remove deletes the category and its products. Stores implementing
// repository.CascadeRemover do both in one transaction. Otherwise the product
// cleanup runs after the category is gone and a failure there is reported in
// RemoveResult.CascadeErr without failing the removal.
func (s *categoryService) Remove(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*RemoveResult, error) {
	if remover, ok := s.categories.(repository.CascadeRemover); ok {
		category, n, err := remover.RemoveCategoryWithProducts(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, domain.NotFound("category not found")
			}
			return nil, storeFailure("remove category", err)
		}
		s.logger.Info("Category removed",
			zap.String("category_id", id.String()),
			zap.Int64("products_deleted", n),
			zap.String("actor", actor.String()),
		)
		return &RemoveResult{Category: category, ProductsDeleted: n}, nil
	}

	category, err := s.categories.DeleteOne(ctx, repository.CategoryFilter{ID: &id})
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, domain.NotFound("category not found")
		}
		return nil, storeFailure("remove category", err)
	}

	result := &RemoveResult{Category: category}
	n, err := s.products.DeleteMany(ctx, repository.ProductFilter{CategoryID: &id})
	if err != nil {
		result.CascadeErr = storeFailure("delete category products", err)
		s.logger.Error("Category removed but product cleanup failed",
			zap.String("category_id", id.String()),
			zap.String("actor", actor.String()),
			zap.Error(err),
		)
		return result, nil
	}
	result.ProductsDeleted = n

	s.logger.Info("Category removed",
		zap.String("category_id", id.String()),
		zap.Int64("products_deleted", n),
		zap.String("actor", actor.String()),
	)
	return result, nil
}

// List pages through categories. The default listing shows active top-level
// categories; Archived lists archived ones instead.
func (s *categoryService) List(ctx context.Context, q ListQuery) (*repository.PageResult[domain.Category], error) {
	filter := repository.CategoryFilter{
		Search:   strings.TrimSpace(q.Search),
		Scope:    scopeFor(q.Archived),
		TopLevel: !q.Archived,
	}
	result, err := s.categories.Paginate(ctx, filter, s.paging.page(q))
	if err != nil {
		return nil, storeFailure("list categories", err)
	}
	return result, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID, archived bool) (*domain.Category, error) {
	return findCategory(ctx, s.categories, repository.CategoryFilter{ID: &id, Scope: scopeFor(archived)}, "category")
}

func (s *categoryService) GetWithProducts(ctx context.Context, id uuid.UUID, q ListQuery) (*CategoryWithProducts, error) {
	category, err := s.Get(ctx, id, q.Archived)
	if err != nil {
		return nil, err
	}

	products, err := s.products.Paginate(ctx, repository.ProductFilter{
		CategoryID: &id,
		Search:     strings.TrimSpace(q.Search),
		Scope:      repository.ScopeActive,
	}, s.paging.page(q))
	if err != nil {
		return nil, storeFailure("list category products", err)
	}

	return &CategoryWithProducts{Category: category, Products: products}, nil
}
