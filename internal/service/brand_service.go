package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BrandService manages the brands categories and products refer to.
type BrandService interface {
	Create(ctx context.Context, name string, actor uuid.UUID) (*domain.Brand, error)
	List(ctx context.Context, q ListQuery) (*repository.PageResult[domain.Brand], error)
}

type brandService struct {
	brands repository.BrandRepository
	paging Paging
	logger *zap.Logger
}

// NewBrandService creates a new instance of BrandService
func NewBrandService(brands repository.BrandRepository, paging Paging, logger *zap.Logger) BrandService {
	return &brandService{brands: brands, paging: paging.orDefault(), logger: logger}
}

func (s *brandService) Create(ctx context.Context, name string, actor uuid.UUID) (*domain.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ValidationFailed("brand name is required", map[string]string{"name": "required"})
	}

	now := time.Now().UTC()
	id := uuid.New()
	brand := &domain.Brand{
		ID:        id,
		Name:      name,
		Slug:      domain.SlugFor(name, id),
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.brands.Create(ctx, brand); err != nil {
		if errors.Is(err, repository.ErrBrandAlreadyExists) {
			return nil, domain.Conflict("brand name already exists")
		}
		return nil, storeFailure("create brand", err)
	}

	s.logger.Info("Brand created", zap.String("brand_id", brand.ID.String()), zap.String("name", name))
	return brand, nil
}

func (s *brandService) List(ctx context.Context, q ListQuery) (*repository.PageResult[domain.Brand], error) {
	result, err := s.brands.Paginate(ctx, repository.BrandFilter{Search: strings.TrimSpace(q.Search)}, s.paging.page(q))
	if err != nil {
		return nil, storeFailure("list brands", err)
	}
	return result, nil
}
