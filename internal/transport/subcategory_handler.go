package transport

import (
	"encoding/json"
	"net/http"

	"catalog-admin/internal/middleware"
	"catalog-admin/internal/refset"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddSubcategoriesRequest lists the categories to link as children.
type AddSubcategoriesRequest struct {
	Subcategories json.RawMessage `json:"subcategories" validate:"required"`
}

// ReplaceSubcategoryRequest names the category taking the old one's place.
type ReplaceSubcategoryRequest struct {
	NewSubcategory string `json:"new_subcategory" validate:"required,uuid"`
}

// SubcategoryHandler handles HTTP requests for parent/child links
type SubcategoryHandler struct {
	subcategories service.SubcategoryService
	logger        *zap.Logger
}

// NewSubcategoryHandler creates a new SubcategoryHandler
func NewSubcategoryHandler(subcategories service.SubcategoryService, logger *zap.Logger) *SubcategoryHandler {
	return &SubcategoryHandler{subcategories: subcategories, logger: logger}
}

// RegisterRoutes mounts the subcategory routes; all of them write.
func (h *SubcategoryHandler) RegisterRoutes(r chi.Router, mutate func(http.Handler) http.Handler) {
	r.Route("/subcategories/{categoryId}", func(r chi.Router) {
		r.Use(mutate)
		r.Post("/", h.Add)
		r.Delete("/{subcategoryId}", h.Remove)
		r.Patch("/{subcategoryId}", h.Replace)
	})
}

// Add links subcategories to a category
func (h *SubcategoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	var req AddSubcategoriesRequest
	if !decode(w, r, h.logger, &req) {
		return
	}
	ids, err := refset.FromJSON(req.Subcategories)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	category, err := h.subcategories.Add(r.Context(), categoryID, ids, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Remove unlinks one subcategory
func (h *SubcategoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	subcategoryID, ok := pathID(w, r, "subcategoryId")
	if !ok {
		return
	}

	category, err := h.subcategories.Remove(r.Context(), categoryID, subcategoryID, actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Replace swaps one subcategory for another in place
func (h *SubcategoryHandler) Replace(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r, h.logger)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	oldID, ok := pathID(w, r, "subcategoryId")
	if !ok {
		return
	}
	var req ReplaceSubcategoryRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	category, err := h.subcategories.Replace(r.Context(), categoryID, oldID, uuid.MustParse(req.NewSubcategory), actorID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}
