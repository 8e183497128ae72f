package service

import (
	"context"
	"strings"
	"testing"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/refset"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateCategory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	brand := env.brand(t, "Acme")
	child := env.category(t, "Sneakers")

	c, err := env.categories.Create(ctx, CreateCategoryCommand{
		Name:          "  Running Shoes ",
		Description:   "all kinds",
		Image:         "/uploads/shoes.png",
		Brands:        refset.Text(brand.ID.String()),
		Subcategories: refset.List([]string{child.ID.String()}),
	}, env.actor)
	require.NoError(t, err)

	assert.Equal(t, "Running Shoes", c.Name)
	assert.Equal(t, "running-shoes", c.Slug)
	assert.Equal(t, []uuid.UUID{brand.ID}, c.Brands)
	assert.Equal(t, []uuid.UUID{child.ID}, c.Subcategories)
	assert.True(t, c.HasSubcategories)
	assert.Equal(t, env.actor, c.CreatedBy)
}

func TestCreateCategoryHasSubcategoriesOverride(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	c, err := env.categories.Create(ctx, CreateCategoryCommand{Name: "Garden", HasSubcategories: ptr(true)}, env.actor)
	require.NoError(t, err)
	assert.True(t, c.HasSubcategories)
	assert.Empty(t, c.Subcategories)

	// a non-empty list wins over the override
	child := env.category(t, "Tools")
	c, err = env.categories.Create(ctx, CreateCategoryCommand{
		Name:             "Outdoor",
		Subcategories:    refset.FromUUIDs([]uuid.UUID{child.ID}),
		HasSubcategories: ptr(false),
	}, env.actor)
	require.NoError(t, err)
	assert.True(t, c.HasSubcategories)
}

func TestCreateCategoryDuplicateNames(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	active := env.category(t, "Shoes")
	_, err := env.categories.Create(ctx, CreateCategoryCommand{Name: "Shoes"}, env.actor)
	activeErr := requireKind(t, err, domain.ErrConflict)
	assert.Equal(t, "category name already exists", activeErr.Message)

	_, err = env.categories.Freeze(ctx, active.ID, env.actor)
	require.NoError(t, err)

	_, err = env.categories.Create(ctx, CreateCategoryCommand{Name: "Shoes"}, env.actor)
	archivedErr := requireKind(t, err, domain.ErrConflict)
	assert.Equal(t, "category name duplicates an archived category", archivedErr.Message)
	assert.NotEqual(t, activeErr.Message, archivedErr.Message)
}

func TestCreateCategoryMissingSubcategory(t *testing.T) {
	env := newTestEnv()
	missing := uuid.New()

	_, err := env.categories.Create(context.Background(), CreateCategoryCommand{
		Name:          "Shoes",
		Subcategories: refset.List([]string{missing.String()}),
	}, env.actor)

	derr := requireKind(t, err, domain.ErrReferenceNotFound)
	assert.Equal(t, []uuid.UUID{missing}, derr.MissingIDs)
}

func TestCreateCategoryMissingBrand(t *testing.T) {
	env := newTestEnv()
	_, err := env.categories.Create(context.Background(), CreateCategoryCommand{
		Name:   "Shoes",
		Brands: refset.Single(uuid.NewString()),
	}, env.actor)
	requireKind(t, err, domain.ErrReferenceNotFound)
}

func TestCreateCategoryValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.categories.Create(ctx, CreateCategoryCommand{Name: "   "}, env.actor)
	requireKind(t, err, domain.ErrValidationFailed)

	_, err = env.categories.Create(ctx, CreateCategoryCommand{Name: "Shoes", Brands: refset.Text("not-an-id")}, env.actor)
	requireKind(t, err, domain.ErrValidationFailed)
}

func TestCategoryTextWidths(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	c, err := env.categories.Create(ctx, CreateCategoryCommand{Name: "Shoes", Description: strings.Repeat("d", 2000)}, env.actor)
	require.NoError(t, err)
	assert.Len(t, c.Description, 2000)

	_, err = env.categories.Create(ctx, CreateCategoryCommand{Name: "Boots", Description: strings.Repeat("d", 2001)}, env.actor)
	derr := requireKind(t, err, domain.ErrValidationFailed)
	assert.Contains(t, derr.Fields, "description")

	_, err = env.categories.Create(ctx, CreateCategoryCommand{Name: strings.Repeat("n", 27)}, env.actor)
	derr = requireKind(t, err, domain.ErrValidationFailed)
	assert.Contains(t, derr.Fields, "name")

	_, err = env.categories.Update(ctx, c.ID, UpdateCategoryCommand{Description: ptr(strings.Repeat("d", 2001))}, env.actor)
	derr = requireKind(t, err, domain.ErrValidationFailed)
	assert.Contains(t, derr.Fields, "description")

	_, err = env.categories.Update(ctx, c.ID, UpdateCategoryCommand{Name: ptr(strings.Repeat("n", 27))}, env.actor)
	derr = requireKind(t, err, domain.ErrValidationFailed)
	assert.Contains(t, derr.Fields, "name")
}

func TestCategorySlugFallsBackForUnfoldableNames(t *testing.T) {
	env := newTestEnv()

	c := env.category(t, "日本")
	assert.Equal(t, c.ID.String()[:8], c.Slug)

	b := env.brand(t, "日本")
	assert.Equal(t, b.ID.String()[:8], b.Slug)
}

func TestCreateCategoryStoreFailure(t *testing.T) {
	env := newTestEnv()
	svc := NewCategoryService(brokenCategories{env.store.Categories()}, env.store.Brands(), env.store.Products(), Paging{}, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateCategoryCommand{Name: "Shoes"}, env.actor)
	requireKind(t, err, domain.ErrStoreFailure)
}

func TestUpdateCategoryBrands(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, b, x := env.brand(t, "A"), env.brand(t, "B"), env.brand(t, "X")
	c, err := env.categories.Create(ctx, CreateCategoryCommand{
		Name:   "Shoes",
		Brands: refset.FromUUIDs([]uuid.UUID{a.ID, b.ID}),
	}, env.actor)
	require.NoError(t, err)

	addX := UpdateCategoryCommand{Brands: refset.FromUUIDs([]uuid.UUID{x.ID})}
	once, err := env.categories.Update(ctx, c.ID, addX, env.actor)
	require.NoError(t, err)
	twice, err := env.categories.Update(ctx, c.ID, addX, env.actor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, x.ID}, once.Brands)
	assert.Equal(t, once.Brands, twice.Brands)

	// add and remove of the same id cancel out
	same, err := env.categories.Update(ctx, c.ID, UpdateCategoryCommand{
		Brands:       refset.FromUUIDs([]uuid.UUID{a.ID}),
		RemoveBrands: refset.FromUUIDs([]uuid.UUID{a.ID}),
	}, env.actor)
	require.NoError(t, err)
	assert.Equal(t, twice.Brands, same.Brands)

	removed, err := env.categories.Update(ctx, c.ID, UpdateCategoryCommand{
		RemoveBrands: refset.FromUUIDs([]uuid.UUID{b.ID}),
	}, env.actor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, x.ID}, removed.Brands)
	require.NotNil(t, removed.UpdatedBy)
	assert.Equal(t, env.actor, *removed.UpdatedBy)

	_, err = env.categories.Update(ctx, c.ID, UpdateCategoryCommand{
		Brands: refset.FromUUIDs([]uuid.UUID{uuid.New()}),
	}, env.actor)
	requireKind(t, err, domain.ErrReferenceNotFound)
}

func TestUpdateCategoryName(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	c := env.category(t, "Shoes")
	archived := env.category(t, "Boots")
	_, err := env.categories.Freeze(ctx, archived.ID, env.actor)
	require.NoError(t, err)

	// archived names block renames too
	_, err = env.categories.Update(ctx, c.ID, UpdateCategoryCommand{Name: ptr("Boots")}, env.actor)
	requireKind(t, err, domain.ErrConflict)

	// keeping its own name is not a collision
	got, err := env.categories.Update(ctx, c.ID, UpdateCategoryCommand{Name: ptr("Shoes")}, env.actor)
	require.NoError(t, err)
	assert.Equal(t, "Shoes", got.Name)

	got, err = env.categories.Update(ctx, c.ID, UpdateCategoryCommand{Name: ptr("Trail Shoes"), Image: ptr("/img/t.png")}, env.actor)
	require.NoError(t, err)
	assert.Equal(t, "trail-shoes", got.Slug)
	assert.Equal(t, "/img/t.png", got.Image)
}

func TestUpdateCategorySubcategories(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	parent := env.category(t, "Shoes")
	child := env.category(t, "Sneakers")

	got, err := env.categories.Update(ctx, parent.ID, UpdateCategoryCommand{
		Subcategories: refset.FromUUIDs([]uuid.UUID{child.ID}),
	}, env.actor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{child.ID}, got.Subcategories)
	assert.True(t, got.HasSubcategories)

	// present but empty clears the list
	got, err = env.categories.Update(ctx, parent.ID, UpdateCategoryCommand{
		Subcategories: refset.List([]string{}),
	}, env.actor)
	require.NoError(t, err)
	assert.Empty(t, got.Subcategories)
	assert.False(t, got.HasSubcategories)

	// an explicit flag wins over derivation
	got, err = env.categories.Update(ctx, parent.ID, UpdateCategoryCommand{
		Subcategories:    refset.List([]string{}),
		HasSubcategories: ptr(true),
	}, env.actor)
	require.NoError(t, err)
	assert.True(t, got.HasSubcategories)

	_, err = env.categories.Update(ctx, parent.ID, UpdateCategoryCommand{
		Subcategories: refset.FromUUIDs([]uuid.UUID{parent.ID}),
	}, env.actor)
	requireKind(t, err, domain.ErrConflict)

	_, err = env.categories.Update(ctx, parent.ID, UpdateCategoryCommand{
		Subcategories: refset.FromUUIDs([]uuid.UUID{uuid.New()}),
	}, env.actor)
	requireKind(t, err, domain.ErrReferenceNotFound)
}

func TestUpdateCategoryMissingAndVanished(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.categories.Update(ctx, uuid.New(), UpdateCategoryCommand{}, env.actor)
	requireKind(t, err, domain.ErrNotFound)

	c := env.category(t, "Shoes")
	svc := NewCategoryService(vanishingCategories{env.store.Categories()}, env.store.Brands(), env.store.Products(), Paging{}, zap.NewNop())
	_, err = svc.Update(ctx, c.ID, UpdateCategoryCommand{Description: ptr("x")}, env.actor)
	requireKind(t, err, domain.ErrConflict)
}

func TestFreezeRestoreLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	c := env.category(t, "Shoes")

	frozen, err := env.categories.Freeze(ctx, c.ID, env.actor)
	require.NoError(t, err)
	assert.NotNil(t, frozen.FreezedAt)
	assert.Nil(t, frozen.RestoredAt)

	listed, err := env.categories.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed.Items)
	archive, err := env.categories.List(ctx, ListQuery{Archived: true})
	require.NoError(t, err)
	require.Len(t, archive.Items, 1)
	assert.Equal(t, c.ID, archive.Items[0].ID)

	_, err = env.categories.Get(ctx, c.ID, false)
	requireKind(t, err, domain.ErrNotFound)
	_, err = env.categories.Get(ctx, c.ID, true)
	require.NoError(t, err)

	restored, err := env.categories.Restore(ctx, c.ID, env.actor)
	require.NoError(t, err)
	assert.Nil(t, restored.FreezedAt)
	assert.NotNil(t, restored.RestoredAt)

	listed, err = env.categories.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, listed.Items, 1)
	archive, err = env.categories.List(ctx, ListQuery{Archived: true})
	require.NoError(t, err)
	assert.Empty(t, archive.Items)

	// restoring an active category does not match
	_, err = env.categories.Restore(ctx, c.ID, env.actor)
	requireKind(t, err, domain.ErrNotFound)

	_, err = env.categories.Freeze(ctx, uuid.New(), env.actor)
	requireKind(t, err, domain.ErrNotFound)
}

func TestRestoreIntoTakenNameConflicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// the service refuses to create over an archived name, so seed the
	// active holder through the store
	old := env.category(t, "Shoes")
	_, err := env.categories.Freeze(ctx, old.ID, env.actor)
	require.NoError(t, err)
	replacement := &domain.Category{ID: uuid.New(), Name: "Shoes", Slug: "shoes", CreatedBy: env.actor}
	require.NoError(t, env.store.Categories().Create(ctx, replacement))

	_, err = env.categories.Restore(ctx, old.ID, env.actor)
	requireKind(t, err, domain.ErrConflict)
}

func TestRemoveCascadesToProducts(t *testing.T) {
	for name, wrap := range map[string]func(repository.CategoryRepository) repository.CategoryRepository{
		"transactional": func(r repository.CategoryRepository) repository.CategoryRepository { return r },
		"best effort":   func(r repository.CategoryRepository) repository.CategoryRepository { return bestEffortCategories{r} },
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			ctx := context.Background()
			svc := NewCategoryService(wrap(env.store.Categories()), env.store.Brands(), env.store.Products(), Paging{}, zap.NewNop())

			c := env.category(t, "Toys")
			other := env.category(t, "Games")
			var ids []uuid.UUID
			for i := 0; i < 3; i++ {
				ids = append(ids, env.product(t, c.ID).ID)
			}
			kept := env.product(t, other.ID)

			result, err := svc.Remove(ctx, c.ID, env.actor)
			require.NoError(t, err)
			assert.Equal(t, c.ID, result.Category.ID)
			assert.EqualValues(t, 3, result.ProductsDeleted)
			assert.NoError(t, result.CascadeErr)

			for _, id := range ids {
				_, err := env.products.Get(ctx, id, false)
				requireKind(t, err, domain.ErrNotFound)
			}
			_, err = env.products.Get(ctx, kept.ID, false)
			assert.NoError(t, err)

			_, err = svc.Get(ctx, c.ID, false)
			requireKind(t, err, domain.ErrNotFound)
			_, err = svc.Remove(ctx, c.ID, env.actor)
			requireKind(t, err, domain.ErrNotFound)
		})
	}
}

func TestRemoveSucceedsWhenCascadeFails(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := NewCategoryService(bestEffortCategories{env.store.Categories()}, env.store.Brands(), failingProducts{env.store.Products()}, Paging{}, zap.NewNop())

	c := env.category(t, "Toys")
	env.product(t, c.ID)

	result, err := svc.Remove(ctx, c.ID, env.actor)
	require.NoError(t, err)
	assert.Equal(t, c.ID, result.Category.ID)
	assert.Zero(t, result.ProductsDeleted)
	assert.ErrorIs(t, result.CascadeErr, domain.ErrStoreFailure)

	_, err = svc.Get(ctx, c.ID, false)
	requireKind(t, err, domain.ErrNotFound)
}

func TestListCategories(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	child := env.category(t, "Sneakers")
	parent, err := env.categories.Create(ctx, CreateCategoryCommand{
		Name:          "Footwear",
		Subcategories: refset.FromUUIDs([]uuid.UUID{child.ID}),
	}, env.actor)
	require.NoError(t, err)
	env.category(t, "Hats")

	top, err := env.categories.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, top.Total)
	for _, c := range top.Items {
		assert.NotEqual(t, child.ID, c.ID)
	}

	found, err := env.categories.List(ctx, ListQuery{Search: "foot"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, parent.ID, found.Items[0].ID)

	paged, err := env.categories.List(ctx, ListQuery{Page: 0, Size: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, paged.Page)
	assert.Equal(t, DefaultPaging.MaxSize, paged.Size)
}

func TestGetWithProducts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	c := env.category(t, "Toys")
	for i := 0; i < 3; i++ {
		env.product(t, c.ID)
	}
	env.product(t, env.category(t, "Other").ID)

	got, err := env.categories.GetWithProducts(ctx, c.ID, ListQuery{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.Category.ID)
	assert.Equal(t, 3, got.Products.Total)
	assert.Len(t, got.Products.Items, 2)

	_, err = env.categories.GetWithProducts(ctx, uuid.New(), ListQuery{})
	requireKind(t, err, domain.ErrNotFound)
}

// Brand updates behave as set algebra on the stored value for any sequence of
// deltas.
func TestProperty_BrandUpdatesMatchSetAlgebra(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("stored brands equal (current - remove) + add", prop.ForAll(
		func(add, remove []int) bool {
			env := newTestEnv()
			ctx := context.Background()

			brands := make([]uuid.UUID, 5)
			for i := range brands {
				brands[i] = env.brand(t, uuid.NewString()).ID
			}
			c, err := env.categories.Create(ctx, CreateCategoryCommand{
				Name:   "Shoes",
				Brands: refset.FromUUIDs(brands[:2]),
			}, env.actor)
			if err != nil {
				return false
			}

			pick := func(idx []int) []uuid.UUID {
				out := make([]uuid.UUID, len(idx))
				for i, n := range idx {
					out[i] = brands[n]
				}
				return out
			}
			got, err := env.categories.Update(ctx, c.ID, UpdateCategoryCommand{
				Brands:       refset.FromUUIDs(pick(add)),
				RemoveBrands: refset.FromUUIDs(pick(remove)),
			}, env.actor)
			if err != nil {
				return false
			}

			want := refset.NewDelta(pick(add), pick(remove)).Apply(c.Brands)
			return assert.ObjectsAreEqual(want, got.Brands)
		},
		gen.SliceOf(gen.IntRange(0, 4)),
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
