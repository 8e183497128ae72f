package transport

import (
	"encoding/json"
	"net/http"

	"catalog-admin/internal/middleware"
	"catalog-admin/internal/refset"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCategoryRequest represents the category creation payload. Brands and
// subcategories accept an array of ids or a comma separated string.
type CreateCategoryRequest struct {
	Name             string          `json:"name" validate:"required,min=2,max=26"`
	Description      string          `json:"description" validate:"max=2000"`
	Image            string          `json:"image" validate:"omitempty,max=512"`
	Brands           json.RawMessage `json:"brands,omitempty"`
	Subcategories    json.RawMessage `json:"subcategories,omitempty"`
	HasSubcategories *bool           `json:"has_subcategories,omitempty"`
}

// UpdateCategoryRequest represents a partial category update. Brands are
// added, RemoveBrands removed; Subcategories replaces the list.
type UpdateCategoryRequest struct {
	Name             *string         `json:"name,omitempty" validate:"omitempty,min=2,max=26"`
	Description      *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image            *string         `json:"image,omitempty" validate:"omitempty,max=512"`
	Brands           json.RawMessage `json:"brands,omitempty"`
	RemoveBrands     json.RawMessage `json:"remove_brands,omitempty"`
	Subcategories    json.RawMessage `json:"subcategories,omitempty"`
	HasSubcategories *bool           `json:"has_subcategories,omitempty"`
}

// RemoveCategoryResponse reports a removal. CascadeError is set when the
// products of the removed category could not all be deleted.
type RemoveCategoryResponse struct {
	*service.RemoveResult
	CascadeError string `json:"cascade_error,omitempty"`
}

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	categories service.CategoryService
	logger     *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// RegisterRoutes mounts the category routes. Writes run behind mutate.
func (h *CategoryHandler) RegisterRoutes(r chi.Router, mutate func(http.Handler) http.Handler) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/archive", h.ListArchived)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/products", h.Products)

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

// Create handles category creation
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateCategoryRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	brands, err := refset.FromJSON(req.Brands)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	subcategories, err := refset.FromJSON(req.Subcategories)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	category, err := h.categories.Create(r.Context(), service.CreateCategoryCommand{
		Name:             req.Name,
		Description:      req.Description,
		Image:            req.Image,
		Brands:           brands,
		Subcategories:    subcategories,
		HasSubcategories: req.HasSubcategories,
	}, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// Update handles partial category updates
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateCategoryRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	cmd := service.UpdateCategoryCommand{
		Name:             req.Name,
		Description:      req.Description,
		Image:            req.Image,
		HasSubcategories: req.HasSubcategories,
	}
	for _, field := range []struct {
		raw json.RawMessage
		dst *refset.Input
	}{
		{req.Brands, &cmd.Brands},
		{req.RemoveBrands, &cmd.RemoveBrands},
		{req.Subcategories, &cmd.Subcategories},
	} {
		in, err := refset.FromJSON(field.raw)
		if err != nil {
			middleware.RespondWithDomainError(w, h.logger, err)
			return
		}
		*field.dst = in
	}

	category, err := h.categories.Update(r.Context(), id, cmd, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Freeze archives a category
func (h *CategoryHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categories.Freeze(r.Context(), id, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Restore brings an archived category back
func (h *CategoryHandler) Restore(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categories.Restore(r.Context(), id, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Remove deletes a category and its products
func (h *CategoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.categories.Remove(r.Context(), id, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	resp := RemoveCategoryResponse{RemoveResult: result}
	if result.CascadeErr != nil {
		resp.CascadeError = "products of the removed category could not be deleted"
	}
	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// List returns active top-level categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListArchived returns archived categories
func (h *CategoryHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request, archived bool) {
	page, err := h.categories.List(r.Context(), listQuery(r, archived))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get returns one category; ?archived=true looks among archived ones
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categories.Get(r.Context(), id, queryBool(r, "archived"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Products returns a category with one page of its active products
func (h *CategoryHandler) Products(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.categories.GetWithProducts(r.Context(), id, listQuery(r, false))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}
