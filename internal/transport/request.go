// Package transport exposes the catalog services over HTTP with chi.
package transport

import (
	"net/http"
	"strconv"
	"strings"

	"catalog-admin/internal/middleware"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Chain composes middleware so routes can share one guard for writes.
func Chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// actor returns the authenticated user or writes a 401.
func actor(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	id, ok := middleware.GetActorID(r.Context())
	if !ok {
		logger.Error("Actor not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

// pathID parses a uuid route parameter or writes a 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// listQuery reads page, size, search, sort_by and order. Unparseable numbers
// fall back to the defaults.
func listQuery(r *http.Request, archived bool) service.ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	order := repository.SortOrder(strings.ToUpper(q.Get("order")))
	if order != repository.SortOrderAsc && order != repository.SortOrderDesc {
		order = ""
	}

	return service.ListQuery{
		Page:     page,
		Size:     size,
		Search:   q.Get("search"),
		SortBy:   q.Get("sort_by"),
		Order:    order,
		Archived: archived,
	}
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// decode reads and validates the request body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(w, r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return false
	}
	return true
}
