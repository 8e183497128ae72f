package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/pricing"
	"catalog-admin/internal/refset"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductCommand carries a validated create request. Images are paths
// already resolved by the upload layer.
type CreateProductCommand struct {
	Name            string
	Description     string
	CategoryID      uuid.UUID
	BrandID         *uuid.UUID
	OriginalPrice   float64
	DiscountPercent float64
	Stock           int
	Images          []string
	Variants        pricing.VariantInput
}

// UpdateProductCommand is a partial update. RemovedImages are dropped from
// the stored list; a non-empty Images replaces it. ClearBrand unsets the
// brand and cannot be combined with BrandID.
type UpdateProductCommand struct {
	Name            *string
	Description     *string
	CategoryID      *uuid.UUID
	BrandID         *uuid.UUID
	ClearBrand      bool
	OriginalPrice   *float64
	DiscountPercent *float64
	Stock           *int
	Variants        pricing.VariantInput
	RemovedImages   []string
	Images          []string
}

// ProductService defines the interface for product lifecycle operations
type ProductService interface {
	Create(ctx context.Context, cmd CreateProductCommand, actor uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateProductCommand, actor uuid.UUID) (*domain.Product, error)
	Freeze(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Product, error)
	Restore(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Product, error)
	Remove(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, q ListQuery) (*repository.PageResult[domain.Product], error)
	Get(ctx context.Context, id uuid.UUID, archived bool) (*domain.Product, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	paging     Paging
	logger     *zap.Logger
	now        func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	paging Paging,
	logger *zap.Logger,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		brands:     brands,
		paging:     paging.orDefault(),
		logger:     logger,
		now:        time.Now,
	}
}

// Width of the stored product name column.
const maxProductName = 200

func checkProductName(name string) error {
	if utf8.RuneCountInString(name) > maxProductName {
		return domain.ValidationFailed("invalid product", map[string]string{
			"name": fmt.Sprintf("must be at most %d characters", maxProductName),
		})
	}
	return nil
}

// validatePricing leaves discounts above 100 to the sale price floor.
func validatePricing(originalPrice, discountPercent float64, stock int) error {
	fields := map[string]string{}
	if originalPrice <= 0 {
		fields["original_price"] = "must be greater than 0"
	}
	if discountPercent < 0 {
		fields["discount_percent"] = "must be greater than or equal to 0"
	}
	if stock < 0 {
		fields["stock"] = "must be greater than or equal to 0"
	}
	if len(fields) > 0 {
		return domain.ValidationFailed("invalid product pricing", fields)
	}
	return nil
}

func (s *productService) verifyReferences(ctx context.Context, categoryID, brandID *uuid.UUID) error {
	if categoryID != nil {
		if err := refset.Verify(ctx, "categories", []uuid.UUID{*categoryID}, categoryLookup(s.categories)); err != nil {
			return err
		}
	}
	if brandID != nil {
		if err := refset.Verify(ctx, "brands", []uuid.UUID{*brandID}, brandLookup(s.brands)); err != nil {
			return err
		}
	}
	return nil
}

func (s *productService) Create(ctx context.Context, cmd CreateProductCommand, actor uuid.UUID) (*domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if err := checkProductName(name); err != nil {
		return nil, err
	}
	if err := validatePricing(cmd.OriginalPrice, cmd.DiscountPercent, cmd.Stock); err != nil {
		return nil, err
	}
	if err := s.verifyReferences(ctx, &cmd.CategoryID, cmd.BrandID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product := &domain.Product{
		ID:              uuid.New(),
		Name:            name,
		Description:     cmd.Description,
		CategoryID:      cmd.CategoryID,
		BrandID:         cmd.BrandID,
		OriginalPrice:   cmd.OriginalPrice,
		DiscountPercent: cmd.DiscountPercent,
		SalePrice:       pricing.SalePrice(cmd.OriginalPrice, cmd.DiscountPercent),
		Stock:           cmd.Stock,
		Images:          slices.Clone(cmd.Images),
		Variants: pricing.Normalize(cmd.Variants, pricing.Defaults{
			OriginalPrice:   cmd.OriginalPrice,
			DiscountPercent: cmd.DiscountPercent,
		}),
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, storeFailure("create product", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("category_id", product.CategoryID.String()),
		zap.Int("variants", len(product.Variants)),
		zap.String("actor", actor.String()),
	)
	return product, nil
}

// Update applies a partial update. Price changes recompute the sale price from
// the merged values and new variants are normalized against them.
func (s *productService) Update(ctx context.Context, id uuid.UUID, cmd UpdateProductCommand, actor uuid.UUID) (*domain.Product, error) {
	current, err := s.products.FindOne(ctx, repository.ProductFilter{ID: &id})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, storeFailure("find product", err)
	}

	originalPrice, discountPercent, stock := current.OriginalPrice, current.DiscountPercent, current.Stock
	if cmd.OriginalPrice != nil {
		originalPrice = *cmd.OriginalPrice
	}
	if cmd.DiscountPercent != nil {
		discountPercent = *cmd.DiscountPercent
	}
	if cmd.Stock != nil {
		stock = *cmd.Stock
	}
	if err := validatePricing(originalPrice, discountPercent, stock); err != nil {
		return nil, err
	}
	if cmd.ClearBrand && cmd.BrandID != nil {
		return nil, domain.ValidationFailed("invalid product", map[string]string{
			"brand_id": "cannot be set while clearing the brand",
		})
	}
	if err := s.verifyReferences(ctx, cmd.CategoryID, cmd.BrandID); err != nil {
		return nil, err
	}

	update := repository.ProductUpdate{
		Description: cmd.Description,
		CategoryID:  cmd.CategoryID,
		BrandID:     cmd.BrandID,
		ClearBrand:  cmd.ClearBrand,
		Stock:       cmd.Stock,
		UpdatedBy:   actor,
	}
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if err := checkProductName(name); err != nil {
			return nil, err
		}
		update.Name = &name
	}
	if cmd.OriginalPrice != nil || cmd.DiscountPercent != nil {
		update.OriginalPrice = &originalPrice
		update.DiscountPercent = &discountPercent
		update.SalePrice = ptr(pricing.SalePrice(originalPrice, discountPercent))
	}
	if cmd.Variants.Present() {
		update.Variants = ptr(pricing.Normalize(cmd.Variants, pricing.Defaults{
			OriginalPrice:   originalPrice,
			DiscountPercent: discountPercent,
		}))
	}
	if cmd.RemovedImages != nil || len(cmd.Images) > 0 {
		update.Images = ptr(mergeImages(current.Images, cmd.RemovedImages, cmd.Images))
	}

	product, err := s.products.UpdateOne(ctx, repository.ProductFilter{ID: &id}, update)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.Conflict("product was removed while updating")
		}
		return nil, storeFailure("update product", err)
	}

	s.logger.Info("Product updated",
		zap.String("product_id", id.String()),
		zap.String("actor", actor.String()),
	)
	return product, nil
}

// mergeImages drops removed paths from current; uploaded images replace the
// list entirely.
func mergeImages(current, removed, uploaded []string) []string {
	if len(uploaded) > 0 {
		return slices.Clone(uploaded)
	}
	out := make([]string, 0, len(current))
	for _, img := range current {
		if !slices.Contains(removed, img) {
			out = append(out, img)
		}
	}
	return out
}

func (s *productService) Freeze(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Product, error) {
	now := s.now().UTC()
	product, err := s.products.UpdateOne(ctx, repository.ProductFilter{ID: &id}, repository.ProductUpdate{
		Freeze:    &now,
		UpdatedBy: actor,
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, storeFailure("freeze product", err)
	}

	s.logger.Info("Product frozen", zap.String("product_id", id.String()), zap.String("actor", actor.String()))
	return product, nil
}

func (s *productService) Restore(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Product, error) {
	now := s.now().UTC()
	product, err := s.products.UpdateOne(ctx, repository.ProductFilter{ID: &id, Scope: repository.ScopeArchived}, repository.ProductUpdate{
		Restore:   &now,
		UpdatedBy: actor,
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("no archived product matches")
		}
		return nil, storeFailure("restore product", err)
	}

	s.logger.Info("Product restored", zap.String("product_id", id.String()), zap.String("actor", actor.String()))
	return product, nil
}

func (s *productService) Remove(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*domain.Product, error) {
	product, err := s.products.DeleteOne(ctx, repository.ProductFilter{ID: &id})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, storeFailure("remove product", err)
	}

	s.logger.Info("Product removed", zap.String("product_id", id.String()), zap.String("actor", actor.String()))
	return product, nil
}

func (s *productService) List(ctx context.Context, q ListQuery) (*repository.PageResult[domain.Product], error) {
	filter := repository.ProductFilter{
		Search: strings.TrimSpace(q.Search),
		Scope:  scopeFor(q.Archived),
	}
	result, err := s.products.Paginate(ctx, filter, s.paging.page(q))
	if err != nil {
		return nil, storeFailure("list products", err)
	}
	return result, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID, archived bool) (*domain.Product, error) {
	product, err := s.products.FindOne(ctx, repository.ProductFilter{ID: &id, Scope: scopeFor(archived)})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFound("product not found")
		}
		return nil, storeFailure("find product", err)
	}
	return product, nil
}
