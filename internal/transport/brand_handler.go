package transport

import (
	"net/http"

	"catalog-admin/internal/middleware"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateBrandRequest represents the brand creation payload
type CreateBrandRequest struct {
	Name string `json:"name" validate:"required,min=2,max=60"`
}

// BrandHandler handles HTTP requests for brands
type BrandHandler struct {
	brands service.BrandService
	logger *zap.Logger
}

// NewBrandHandler creates a new BrandHandler
func NewBrandHandler(brands service.BrandService, logger *zap.Logger) *BrandHandler {
	return &BrandHandler{brands: brands, logger: logger}
}

// RegisterRoutes mounts the brand routes
func (h *BrandHandler) RegisterRoutes(r chi.Router, mutate func(http.Handler) http.Handler) {
	r.Route("/brands", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(mutate).Post("/", h.Create)
	})
}

// Create handles brand creation
func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateBrandRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	brand, err := h.brands.Create(r.Context(), req.Name, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, brand)
}

// List returns brands ordered by name
func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.brands.List(r.Context(), listQuery(r, false))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}
