package service

import (
	"context"
	"errors"
	"testing"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	store         *memory.Store
	categories    CategoryService
	subcategories SubcategoryService
	products      ProductService
	brands        BrandService
	actor         uuid.UUID
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	logger := zap.NewNop()
	return &testEnv{
		store:         store,
		categories:    NewCategoryService(store.Categories(), store.Brands(), store.Products(), Paging{}, logger),
		subcategories: NewSubcategoryService(store.Categories(), logger),
		products:      NewProductService(store.Products(), store.Categories(), store.Brands(), Paging{}, logger),
		brands:        NewBrandService(store.Brands(), Paging{}, logger),
		actor:         uuid.New(),
	}
}

func (e *testEnv) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), CreateCategoryCommand{Name: name}, e.actor)
	require.NoError(t, err)
	return c
}

func (e *testEnv) brand(t *testing.T, name string) *domain.Brand {
	t.Helper()
	b, err := e.brands.Create(context.Background(), name, e.actor)
	require.NoError(t, err)
	return b
}

func (e *testEnv) product(t *testing.T, categoryID uuid.UUID) *domain.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), CreateProductCommand{
		Name:          "Item",
		CategoryID:    categoryID,
		OriginalPrice: 10,
		Stock:         1,
	}, e.actor)
	require.NoError(t, err)
	return p
}

func requireKind(t *testing.T, err error, kind error) *domain.Error {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	derr, ok := domain.AsError(err)
	require.True(t, ok, "expected *domain.Error, got %T", err)
	return derr
}

// bestEffortCategories hides CascadeRemover so the service takes the
// non-transactional removal path.
type bestEffortCategories struct {
	repository.CategoryRepository
}

// failingProducts fails DeleteMany and delegates everything else.
type failingProducts struct {
	repository.ProductRepository
}

func (failingProducts) DeleteMany(context.Context, repository.ProductFilter) (int64, error) {
	return 0, errors.New("connection reset")
}

// vanishingCategories finds the row but loses it before the write.
type vanishingCategories struct {
	repository.CategoryRepository
}

func (vanishingCategories) UpdateOne(context.Context, repository.CategoryFilter, repository.CategoryUpdate) (*domain.Category, error) {
	return nil, repository.ErrCategoryNotFound
}

// brokenCategories fails every read.
type brokenCategories struct {
	repository.CategoryRepository
}

func (brokenCategories) Find(context.Context, repository.CategoryFilter) ([]*domain.Category, error) {
	return nil, errors.New("db down")
}
