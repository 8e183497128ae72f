package service

import (
	"context"
	"errors"
	"testing"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/refset"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSubcategories(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	parent := env.category(t, "Shoes")
	a, b, c := env.category(t, "A"), env.category(t, "B"), env.category(t, "C")

	got, err := env.subcategories.Add(ctx, parent.ID, refset.FromUUIDs([]uuid.UUID{b.ID, a.ID}), env.actor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, got.Subcategories)
	assert.True(t, got.HasSubcategories)

	// existing order first, then new ids in input order, no duplicates
	got, err = env.subcategories.Add(ctx, parent.ID, refset.Text(c.ID.String()+","+a.ID.String()), env.actor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID, c.ID}, got.Subcategories)
}

func TestAddSubcategoriesSelfCycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	parent := env.category(t, "Shoes")
	child := env.category(t, "Sneakers")
	_, err := env.subcategories.Add(ctx, parent.ID, refset.FromUUIDs([]uuid.UUID{child.ID}), env.actor)
	require.NoError(t, err)

	_, err = env.subcategories.Add(ctx, parent.ID, refset.FromUUIDs([]uuid.UUID{parent.ID}), env.actor)
	requireKind(t, err, domain.ErrConflict)

	after, err := env.categories.Get(ctx, parent.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{child.ID}, after.Subcategories)
}

func TestAddSubcategoriesErrors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	parent := env.category(t, "Shoes")

	_, err := env.subcategories.Add(ctx, uuid.New(), refset.FromUUIDs([]uuid.UUID{parent.ID}), env.actor)
	requireKind(t, err, domain.ErrNotFound)

	missing := uuid.New()
	_, err = env.subcategories.Add(ctx, parent.ID, refset.FromUUIDs([]uuid.UUID{missing}), env.actor)
	derr := requireKind(t, err, domain.ErrReferenceNotFound)
	assert.Equal(t, []uuid.UUID{missing}, derr.MissingIDs)

	_, err = env.subcategories.Add(ctx, parent.ID, refset.Absent(), env.actor)
	requireKind(t, err, domain.ErrValidationFailed)
}

func TestRemoveSubcategory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	parent := env.category(t, "Shoes")
	a, b := env.category(t, "A"), env.category(t, "B")
	_, err := env.subcategories.Add(ctx, parent.ID, refset.FromUUIDs([]uuid.UUID{a.ID, b.ID}), env.actor)
	require.NoError(t, err)

	got, err := env.subcategories.Remove(ctx, parent.ID, a.ID, env.actor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, got.Subcategories)
	assert.True(t, got.HasSubcategories)

	_, err = env.subcategories.Remove(ctx, parent.ID, a.ID, env.actor)
	requireKind(t, err, domain.ErrConflict)

	got, err = env.subcategories.Remove(ctx, parent.ID, b.ID, env.actor)
	require.NoError(t, err)
	assert.Empty(t, got.Subcategories)
	assert.False(t, got.HasSubcategories)

	_, err = env.subcategories.Remove(ctx, uuid.New(), b.ID, env.actor)
	requireKind(t, err, domain.ErrNotFound)
	_, err = env.subcategories.Remove(ctx, parent.ID, uuid.New(), env.actor)
	requireKind(t, err, domain.ErrNotFound)
}

func TestReplaceSubcategory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	parent := env.category(t, "Shoes")
	a, b, c := env.category(t, "A"), env.category(t, "B"), env.category(t, "C")
	_, err := env.subcategories.Add(ctx, parent.ID, refset.FromUUIDs([]uuid.UUID{a.ID, b.ID}), env.actor)
	require.NoError(t, err)

	got, err := env.subcategories.Replace(ctx, parent.ID, a.ID, c.ID, env.actor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID, b.ID}, got.Subcategories)

	tests := []struct {
		name     string
		old, new uuid.UUID
		kind     error
	}{
		{"new is the category itself", b.ID, parent.ID, domain.ErrConflict},
		{"old not linked", a.ID, a.ID, domain.ErrConflict},
		{"new already linked", b.ID, c.ID, domain.ErrConflict},
		{"old missing", uuid.New(), a.ID, domain.ErrNotFound},
		{"new missing", b.ID, uuid.New(), domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.subcategories.Replace(ctx, parent.ID, tt.old, tt.new, env.actor)
			requireKind(t, err, tt.kind)
		})
	}

	_, err = env.subcategories.Replace(ctx, uuid.New(), a.ID, b.ID, env.actor)
	requireKind(t, err, domain.ErrNotFound)
}

func TestProperty_HasSubcategoriesTracksList(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("has_subcategories == len(subcategories) > 0 after add/remove", prop.ForAll(
		func(ops []int) bool {
			env := newTestEnv()
			ctx := context.Background()

			parent := env.category(t, "Parent")
			children := make([]uuid.UUID, 3)
			for i := range children {
				children[i] = env.category(t, uuid.NewString()).ID
			}

			for _, op := range ops {
				child := children[op%len(children)]
				var err error
				if op < len(children) {
					_, err = env.subcategories.Add(ctx, parent.ID, refset.FromUUIDs([]uuid.UUID{child}), env.actor)
				} else {
					_, err = env.subcategories.Remove(ctx, parent.ID, child, env.actor)
					if errors.Is(err, domain.ErrConflict) {
						err = nil
					}
				}
				if err != nil {
					return false
				}

				got, err := env.categories.Get(ctx, parent.ID, false)
				if err != nil || got.HasSubcategories != (len(got.Subcategories) > 0) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
