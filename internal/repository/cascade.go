package repository

import (
	"context"

	"catalog-admin/internal/database"
	"catalog-admin/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxDB is a DBTX that can also open transactions, such as *pgxpool.Pool.
type TxDB interface {
	DBTX
	database.Beginner
}

type removal struct {
	category *domain.Category
	products int64
}

type txCategoryRepository struct {
	*categoryRepository
	pool TxDB
}

// NewTxCategoryRepository returns a CategoryRepository that also implements
// CascadeRemover.
func NewTxCategoryRepository(pool TxDB) CategoryRepository {
	return &txCategoryRepository{
		categoryRepository: &categoryRepository{db: pool},
		pool:               pool,
	}
}

// RemoveCategoryWithProducts deletes the category and every product in it in
// one transaction. Nothing is deleted when either step fails.
func (r *txCategoryRepository) RemoveCategoryWithProducts(ctx context.Context, id uuid.UUID) (*domain.Category, int64, error) {
	res, err := database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (removal, error) {
		category, err := NewCategoryRepository(tx).DeleteOne(ctx, CategoryFilter{ID: &id})
		if err != nil {
			return removal{}, err
		}
		n, err := NewProductRepository(tx).DeleteMany(ctx, ProductFilter{CategoryID: &id})
		if err != nil {
			return removal{}, err
		}
		return removal{category: category, products: n}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.category, res.products, nil
}
