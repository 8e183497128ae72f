package refset

import (
	"context"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

// LookupFunc returns the subset of ids that exist in the referenced collection.
type LookupFunc func(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

// Missing returns the ids the lookup did not find, in input order.
func Missing(ctx context.Context, ids []uuid.UUID, lookup LookupFunc) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	present := toSet(found)

	var missing []uuid.UUID
	for _, id := range Dedup(ids) {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Verify fails with ErrReferenceNotFound when any id is missing. what names
// the referenced collection in the error message.
func Verify(ctx context.Context, what string, ids []uuid.UUID, lookup LookupFunc) error {
	missing, err := Missing(ctx, ids, lookup)
	if err != nil {
		return domain.StoreFailure("verify "+what, err)
	}
	if len(missing) > 0 {
		return domain.ReferenceNotFound(what, missing)
	}
	return nil
}
