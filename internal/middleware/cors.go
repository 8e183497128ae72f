package middleware

import (
	"net/http"
	"time"

	"catalog-admin/internal/config"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CORSMiddleware allows the admin dashboard origins. Development opens it to
// every origin.
func CORSMiddleware(cfg config.ServerConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if cfg.Env == "development" {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// DefaultMiddlewareStack returns the middleware every route runs behind.
func DefaultMiddlewareStack(timeout time.Duration) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Timeout(timeout),
		middleware.Compress(5, "application/json"),
	}
}
