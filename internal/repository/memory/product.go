package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"
)

type productRepository struct {
	s *Store
}

func cloneProduct(p *domain.Product) *domain.Product {
	out := *p
	out.Images = slices.Clone(p.Images)
	out.Variants = make([]domain.Variant, len(p.Variants))
	for i, v := range p.Variants {
		v.Attributes = maps.Clone(v.Attributes)
		out.Variants[i] = v
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if p.BrandID != nil {
		id := *p.BrandID
		out.BrandID = &id
	}
	return &out
}

func matchProduct(p *domain.Product, f repository.ProductFilter) bool {
	if f.ID != nil && p.ID != *f.ID {
		return false
	}
	if !inIDs(f.IDs, p.ID) {
		return false
	}
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Description, f.Search) {
		return false
	}
	return inScope(f.Scope, p.FreezedAt)
}

func compareProducts(a, b *domain.Product, field string) int {
	var c int
	switch field {
	case "name":
		c = strings.Compare(a.Name, b.Name)
	case "sale_price":
		c = cmp.Compare(a.SalePrice, b.SalePrice)
	case "stock":
		c = cmp.Compare(a.Stock, b.Stock)
	case "sold_items":
		c = cmp.Compare(a.SoldItems, b.SoldItems)
	default:
		c = compareTime(a.CreatedAt, b.CreatedAt)
	}
	return cmp.Or(c, compareIDs(a.ID, b.ID))
}

func (r *productRepository) FindOne(ctx context.Context, filter repository.ProductFilter) (*domain.Product, error) {
	items, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrProductNotFound
	}
	return items[0], nil
}

func (r *productRepository) Find(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	page, err := r.Paginate(ctx, filter, repository.Page{})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *productRepository) Paginate(_ context.Context, filter repository.ProductFilter, page repository.Page) (*repository.PageResult[domain.Product], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var items []*domain.Product
	for _, p := range r.s.products {
		if matchProduct(p, filter) {
			items = append(items, cloneProduct(p))
		}
	}
	return paginate(items, page, compareProducts), nil
}

func (r *productRepository) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepository) UpdateOne(_ context.Context, filter repository.ProductFilter, update repository.ProductUpdate) (*domain.Product, error) {
	if filter.ID == nil {
		return nil, repository.ErrUnboundedFilter
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[*filter.ID]
	if !ok || !matchProduct(stored, filter) {
		return nil, repository.ErrProductNotFound
	}

	p := cloneProduct(stored)
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.CategoryID != nil {
		p.CategoryID = *update.CategoryID
	}
	switch {
	case update.ClearBrand:
		p.BrandID = nil
	case update.BrandID != nil:
		id := *update.BrandID
		p.BrandID = &id
	}
	if update.OriginalPrice != nil {
		p.OriginalPrice = *update.OriginalPrice
	}
	if update.DiscountPercent != nil {
		p.DiscountPercent = *update.DiscountPercent
	}
	if update.SalePrice != nil {
		p.SalePrice = *update.SalePrice
	}
	if update.Stock != nil {
		p.Stock = *update.Stock
	}
	if update.Images != nil {
		p.Images = slices.Clone(*update.Images)
	}
	if update.Variants != nil {
		p.Variants = *update.Variants
	}
	if update.Freeze != nil {
		p.FreezedAt = timePtr(*update.Freeze)
		p.RestoredAt = nil
	}
	if update.Restore != nil {
		p.RestoredAt = timePtr(*update.Restore)
		p.FreezedAt = nil
	}
	actor := update.UpdatedBy
	p.UpdatedBy = &actor
	p.UpdatedAt = r.s.now()

	r.s.products[p.ID] = cloneProduct(p)
	return p, nil
}

func (r *productRepository) DeleteOne(_ context.Context, filter repository.ProductFilter) (*domain.Product, error) {
	if filter.ID == nil {
		return nil, repository.ErrUnboundedFilter
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[*filter.ID]
	if !ok || !matchProduct(stored, filter) {
		return nil, repository.ErrProductNotFound
	}
	delete(r.s.products, stored.ID)
	return stored, nil
}

func (r *productRepository) DeleteMany(_ context.Context, filter repository.ProductFilter) (int64, error) {
	if !filter.Bounded() {
		return 0, repository.ErrUnboundedFilter
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, p := range r.s.products {
		if matchProduct(p, filter) {
			delete(r.s.products, id)
			n++
		}
	}
	return n, nil
}
