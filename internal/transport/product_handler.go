package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/middleware"
	"catalog-admin/internal/pricing"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload. Variants
// accept an object, an array, or JSON text holding either.
type CreateProductRequest struct {
	Name            string          `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description     string          `json:"description" validate:"max=5000"`
	CategoryID      string          `json:"category_id" validate:"required,uuid"`
	BrandID         *string         `json:"brand_id,omitempty" validate:"omitempty,uuid"`
	OriginalPrice   float64         `json:"original_price"`
	DiscountPercent float64         `json:"discount_percent"`
	Stock           int             `json:"stock"`
	Images          []string        `json:"images,omitempty" validate:"omitempty,dive,required"`
	Variants        json.RawMessage `json:"variants,omitempty"`
}

// UpdateProductRequest represents a partial product update. Images replaces
// the stored list; RemovedImages drops entries from it. RemoveBrand unsets
// the brand.
type UpdateProductRequest struct {
	Name            *string         `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description     *string         `json:"description,omitempty" validate:"omitempty,max=5000"`
	CategoryID      *string         `json:"category_id,omitempty" validate:"omitempty,uuid"`
	BrandID         *string         `json:"brand_id,omitempty" validate:"omitempty,uuid,excluded_with=RemoveBrand"`
	RemoveBrand     bool            `json:"remove_brand,omitempty"`
	OriginalPrice   *float64        `json:"original_price,omitempty"`
	DiscountPercent *float64        `json:"discount_percent,omitempty"`
	Stock           *int            `json:"stock,omitempty"`
	Variants        json.RawMessage `json:"variants,omitempty"`
	RemovedImages   []string        `json:"removed_images,omitempty"`
	Images          []string        `json:"images,omitempty" validate:"omitempty,dive,required"`
}

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// RegisterRoutes mounts the product routes. Writes run behind mutate.
func (h *ProductHandler) RegisterRoutes(r chi.Router, mutate func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/archive", h.ListArchived)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(mutate)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Remove)
			r.Patch("/{id}/freeze", h.Freeze)
			r.Patch("/{id}/restore", h.Restore)
		})
	})
}

// optionalID parses an already validated uuid string.
func optionalID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id := uuid.MustParse(*s)
	return &id
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateProductRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	product, err := h.products.Create(r.Context(), service.CreateProductCommand{
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      uuid.MustParse(req.CategoryID),
		BrandID:         optionalID(req.BrandID),
		OriginalPrice:   req.OriginalPrice,
		DiscountPercent: req.DiscountPercent,
		Stock:           req.Stock,
		Images:          req.Images,
		Variants:        pricing.ParseVariantInput(req.Variants),
	}, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles partial product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	product, err := h.products.Update(r.Context(), id, service.UpdateProductCommand{
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      optionalID(req.CategoryID),
		BrandID:         optionalID(req.BrandID),
		ClearBrand:      req.RemoveBrand,
		OriginalPrice:   req.OriginalPrice,
		DiscountPercent: req.DiscountPercent,
		Stock:           req.Stock,
		Variants:        pricing.ParseVariantInput(req.Variants),
		RemovedImages:   req.RemovedImages,
		Images:          req.Images,
	}, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Freeze archives a product
func (h *ProductHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.products.Freeze)
}

// Restore brings an archived product back
func (h *ProductHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.products.Restore)
}

// Remove deletes a product
func (h *ProductHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.products.Remove)
}

func (h *ProductHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id, actorID uuid.UUID) (*domain.Product, error),
) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := op(r.Context(), id, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// List returns active products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListArchived returns archived products
func (h *ProductHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, archived bool) {
	page, err := h.products.List(r.Context(), listQuery(r, archived))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get returns one product; ?archived=true looks among archived ones
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), id, queryBool(r, "archived"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}
