package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalog-admin/internal/config"
	"catalog-admin/internal/database"
	custommiddleware "catalog-admin/internal/middleware"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/repository/memory"
	"catalog-admin/internal/service"
	"catalog-admin/internal/transport"
	"catalog-admin/migrations"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Repositories is the storage backend the services run on.
type Repositories struct {
	Categories repository.CategoryRepository
	Products   repository.ProductRepository
	Brands     repository.BrandRepository
}

// PostgresRepositories builds the pgx-backed repositories. Category removal
// cascades inside one transaction.
func PostgresRepositories(db database.Service) Repositories {
	pool := db.Pool()
	return Repositories{
		Categories: repository.NewTxCategoryRepository(pool),
		Products:   repository.NewProductRepository(pool),
		Brands:     repository.NewBrandRepository(pool),
	}
}

// MemoryRepositories builds repositories over one in-process store.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Categories: store.Categories(),
		Products:   store.Products(),
		Brands:     store.Brands(),
	}
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires services and routes. db and rdb may be nil: without db the
// health check omits the database, without rdb writes are not rate limited.
func NewServer(cfg *config.Config, logger *zap.Logger, repos Repositories, db database.Service, rdb *redis.Client) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  rdb,
	}

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack(25 * time.Second)...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server))

	router.Get("/health", s.health)

	paging := service.Paging{DefaultSize: cfg.Catalog.DefaultPageSize, MaxSize: cfg.Catalog.MaxPageSize}
	categoryService := service.NewCategoryService(repos.Categories, repos.Brands, repos.Products, paging, logger)
	subcategoryService := service.NewSubcategoryService(repos.Categories, logger)
	productService := service.NewProductService(repos.Products, repos.Categories, repos.Brands, paging, logger)
	brandService := service.NewBrandService(repos.Brands, paging, logger)

	mutate := custommiddleware.RequireAdmin(logger)
	if rdb != nil {
		mutate = transport.Chain(
			mutate,
			custommiddleware.RateLimitMiddleware(rdb, custommiddleware.MutationRateLimit(cfg.Redis.RateLimit), logger),
		)
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger))

		transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(r, mutate)
		transport.NewSubcategoryHandler(subcategoryService, logger).RegisterRoutes(r, mutate)
		transport.NewProductHandler(productService, logger).RegisterRoutes(r, mutate)
		transport.NewBrandHandler(brandService, logger).RegisterRoutes(r, mutate)
	})

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]interface{}{"status": "ok", "store": s.config.Catalog.Store}
	if s.db != nil {
		dbHealth := s.db.Health(ctx)
		body["database"] = dbHealth
		if dbHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		} else if version, err := database.SchemaVersion(s.db.Pool(), migrations.FS); err == nil {
			body["schema_version"] = version
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			body["redis"] = "down"
		} else {
			body["redis"] = "up"
		}
	}
	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		s.db.Close()
	}

	_ = s.logger.Sync()
	return nil
}
