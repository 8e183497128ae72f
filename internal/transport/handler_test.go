package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/middleware"
	"catalog-admin/internal/repository/memory"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testAPI serves the catalog routes over a memory store. Requests carry the
// role set on the api, standing in for the JWT middleware.
type testAPI struct {
	t      *testing.T
	router http.Handler
	role   string
	actor  uuid.UUID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()

	api := &testAPI{t: t, role: middleware.RoleAdmin, actor: uuid.New()}
	router := chi.NewRouter()
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if api.role == "" {
					next.ServeHTTP(w, r)
					return
				}
				next.ServeHTTP(w, r.WithContext(middleware.WithActor(r.Context(), api.actor, api.role)))
			})
		})
		mutate := middleware.RequireAdmin(logger)

		NewCategoryHandler(service.NewCategoryService(store.Categories(), store.Brands(), store.Products(), service.Paging{}, logger), logger).
			RegisterRoutes(r, mutate)
		NewSubcategoryHandler(service.NewSubcategoryService(store.Categories(), logger), logger).
			RegisterRoutes(r, mutate)
		NewProductHandler(service.NewProductService(store.Products(), store.Categories(), store.Brands(), service.Paging{}, logger), logger).
			RegisterRoutes(r, mutate)
		NewBrandHandler(service.NewBrandService(store.Brands(), service.Paging{}, logger), logger).
			RegisterRoutes(r, mutate)
	})
	api.router = router
	return api
}

func (a *testAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createCategory(name string, extra map[string]interface{}) *domain.Category {
	a.t.Helper()
	body := map[string]interface{}{"name": name}
	for k, v := range extra {
		body[k] = v
	}
	rec := a.do(http.MethodPost, "/api/categories", body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeInto[*domain.Category](a.t, rec)
}

type page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func TestCategoryRoutes(t *testing.T) {
	api := newTestAPI(t)

	brand := decodeInto[*domain.Brand](t, api.do(http.MethodPost, "/api/brands", map[string]string{"name": "Acme"}))
	child := api.createCategory("Sneakers", nil)
	parent := api.createCategory("Shoes", map[string]interface{}{
		"brands":        brand.ID.String(),
		"subcategories": []string{child.ID.String()},
	})
	assert.Equal(t, []uuid.UUID{brand.ID}, parent.Brands)
	assert.True(t, parent.HasSubcategories)

	// only top-level categories are listed
	listing := decodeInto[page[domain.Category]](t, api.do(http.MethodGet, "/api/categories", nil))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, parent.ID, listing.Items[0].ID)

	rec := api.do(http.MethodPatch, "/api/categories/"+parent.ID.String(), map[string]interface{}{
		"remove_brands": []string{brand.ID.String()},
		"name":          "Footwear",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeInto[*domain.Category](t, rec)
	assert.Empty(t, updated.Brands)
	assert.Equal(t, "Footwear", updated.Name)

	require.Equal(t, http.StatusOK, api.do(http.MethodPatch, "/api/categories/"+parent.ID.String()+"/freeze", nil).Code)
	archived := decodeInto[page[domain.Category]](t, api.do(http.MethodGet, "/api/categories/archive", nil))
	assert.Equal(t, 1, archived.Total)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/categories/"+parent.ID.String(), nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/categories/"+parent.ID.String()+"?archived=true", nil).Code)

	require.Equal(t, http.StatusOK, api.do(http.MethodPatch, "/api/categories/"+parent.ID.String()+"/restore", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, "/api/categories/"+parent.ID.String()+"/restore", nil).Code)

	rec = api.do(http.MethodDelete, "/api/categories/"+parent.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decodeInto[map[string]interface{}](t, rec)
	assert.NotContains(t, removed, "cascade_error")
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/categories/"+parent.ID.String(), nil).Code)
}

func TestCategoryRouteErrors(t *testing.T) {
	api := newTestAPI(t)
	api.createCategory("Shoes", nil)
	missing := uuid.New()

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"name too short", http.MethodPost, "/api/categories", map[string]string{"name": "S"}, http.StatusBadRequest},
		{"name too long", http.MethodPost, "/api/categories", map[string]string{"name": "abcdefghijklmnopqrstuvwxyz0"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/categories", `{"name":`, http.StatusBadRequest},
		{"duplicate", http.MethodPost, "/api/categories", map[string]string{"name": "Shoes"}, http.StatusConflict},
		{"missing subcategory", http.MethodPost, "/api/categories", map[string]interface{}{"name": "Boots", "subcategories": []string{missing.String()}}, http.StatusBadRequest},
		{"malformed id list", http.MethodPost, "/api/categories", map[string]interface{}{"name": "Boots", "brands": 42}, http.StatusUnprocessableEntity},
		{"bad path id", http.MethodGet, "/api/categories/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown id", http.MethodPatch, "/api/categories/" + missing.String() + "/freeze", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	rec := api.do(http.MethodPost, "/api/categories", map[string]interface{}{"name": "Boots", "subcategories": []string{missing.String()}})
	body := decodeInto[middleware.ErrorResponse](t, rec)
	assert.Equal(t, []interface{}{missing.String()}, body.Error.Details["missing_ids"])
}

func TestSubcategoryRoutes(t *testing.T) {
	api := newTestAPI(t)
	parent := api.createCategory("Shoes", nil)
	a := api.createCategory("Sneakers", nil)
	b := api.createCategory("Boots", nil)

	base := "/api/subcategories/" + parent.ID.String()
	rec := api.do(http.MethodPost, base, map[string]interface{}{"subcategories": a.ID.String() + "," + b.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, decodeInto[*domain.Category](t, rec).Subcategories)

	c := api.createCategory("Sandals", nil)
	rec = api.do(http.MethodPatch, base+"/"+a.ID.String(), map[string]string{"new_subcategory": c.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []uuid.UUID{c.ID, b.ID}, decodeInto[*domain.Category](t, rec).Subcategories)

	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, base, map[string]interface{}{"subcategories": []string{parent.ID.String()}}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPatch, base+"/"+b.ID.String(), map[string]string{"new_subcategory": "nope"}).Code)

	require.Equal(t, http.StatusOK, api.do(http.MethodDelete, base+"/"+c.ID.String(), nil).Code)
	rec = api.do(http.MethodDelete, base+"/"+b.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeInto[*domain.Category](t, rec).HasSubcategories)
	assert.Equal(t, http.StatusConflict, api.do(http.MethodDelete, base+"/"+b.ID.String(), nil).Code)
}

func TestProductRoutes(t *testing.T) {
	api := newTestAPI(t)
	category := api.createCategory("Shoes", nil)

	rec := api.do(http.MethodPost, "/api/products", map[string]interface{}{
		"name":             "Runner",
		"category_id":      category.ID.String(),
		"original_price":   100,
		"discount_percent": 25,
		"stock":            4,
		"images":           []string{"/uploads/a.png", "/uploads/b.png"},
		"variants":         `[{"sku":"R-42","size":"42"}]`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decodeInto[*domain.Product](t, rec)
	assert.Equal(t, 75.0, product.SalePrice)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, "42", product.Variants[0].Attributes["size"])

	rec = api.do(http.MethodPatch, "/api/products/"+product.ID.String(), map[string]interface{}{
		"original_price": 200,
		"removed_images": []string{"/uploads/a.png"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeInto[*domain.Product](t, rec)
	assert.Equal(t, 150.0, updated.SalePrice)
	assert.Equal(t, []string{"/uploads/b.png"}, updated.Images)

	withProducts := decodeInto[service.CategoryWithProducts](t, api.do(http.MethodGet, "/api/categories/"+category.ID.String()+"/products", nil))
	assert.Equal(t, 1, withProducts.Products.Total)

	require.Equal(t, http.StatusOK, api.do(http.MethodPatch, "/api/products/"+product.ID.String()+"/freeze", nil).Code)
	assert.Equal(t, 1, decodeInto[page[domain.Product]](t, api.do(http.MethodGet, "/api/products/archive", nil)).Total)
	assert.Equal(t, 0, decodeInto[page[domain.Product]](t, api.do(http.MethodGet, "/api/products", nil)).Total)

	require.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/api/products/"+product.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/products/"+product.ID.String()+"?archived=true", nil).Code)
}

func TestProductRouteErrors(t *testing.T) {
	api := newTestAPI(t)
	category := api.createCategory("Shoes", nil)

	rec := api.do(http.MethodPost, "/api/products", map[string]interface{}{"name": "Runner", "category_id": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/products", map[string]interface{}{
		"name":           "Runner",
		"category_id":    uuid.NewString(),
		"original_price": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/products", map[string]interface{}{
		"name":           "Runner",
		"category_id":    category.ID.String(),
		"original_price": 0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeInto[middleware.ErrorResponse](t, rec)
	assert.Contains(t, body.Error.Details["fields"], "original_price")
}

func TestProductNameOptionalAndBrandRemovable(t *testing.T) {
	api := newTestAPI(t)
	category := api.createCategory("Shoes", nil)
	brand := decodeInto[*domain.Brand](t, api.do(http.MethodPost, "/api/brands", map[string]string{"name": "Acme"}))

	rec := api.do(http.MethodPost, "/api/products", map[string]interface{}{
		"category_id":      category.ID.String(),
		"brand_id":         brand.ID.String(),
		"original_price":   10,
		"discount_percent": 150,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decodeInto[*domain.Product](t, rec)
	assert.Empty(t, product.Name)
	assert.Equal(t, 1.0, product.SalePrice)
	require.NotNil(t, product.BrandID)

	path := "/api/products/" + product.ID.String()
	rec = api.do(http.MethodPatch, path, map[string]interface{}{
		"brand_id":     brand.ID.String(),
		"remove_brand": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPatch, path, map[string]interface{}{"remove_brand": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decodeInto[*domain.Product](t, rec).BrandID)
}

func TestCategoryLongDescription(t *testing.T) {
	api := newTestAPI(t)

	c := api.createCategory("Shoes", map[string]interface{}{"description": strings.Repeat("d", 2000)})
	assert.Len(t, c.Description, 2000)

	rec := api.do(http.MethodPost, "/api/categories", map[string]interface{}{
		"name":        "Boots",
		"description": strings.Repeat("d", 2001),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWritesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	category := api.createCategory("Shoes", nil)

	api.role = "customer"
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/categories", map[string]string{"name": "Boots"}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/categories/"+category.ID.String(), nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/subcategories/"+category.ID.String(), nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/categories", nil).Code)

	// without any actor, role checks fail before handlers see the request
	api.role = ""
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/brands", map[string]string{"name": "Acme"}).Code)
}
