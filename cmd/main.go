package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-import-service/internal/cache"
	"catalog-import-service/internal/classifier"
	"catalog-import-service/internal/config"
	"catalog-import-service/internal/events"
	"catalog-import-service/internal/handlers"
	"catalog-import-service/internal/ingest"
	"catalog-import-service/internal/metrics"
	"catalog-import-service/internal/middleware"
	"catalog-import-service/internal/reconciler"
	"catalog-import-service/internal/repository"
	"catalog-import-service/internal/services"
)

// @title Catalog Import API
// @version 1.0.0
// @description Bulk catalog import: CSV/XLSX preview, idempotent commit and export

// @host localhost:8095
// @BasePath /api/v1

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	log.Println("✓ Database connected")

	// Redis backs preview tokens; without it commits must resend the file
	var redisClient *redis.Client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (preview tokens disabled)", err)
	} else {
		redisClient = redis.NewClient(redisOpts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("WARNING: Failed to connect to Redis: %v (preview tokens disabled)", err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Println("✓ Redis connected successfully")
		}
		cancel()
	}
	previewCache := cache.NewPreviewCache(redisClient, cfg.PreviewTTL)

	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer eventsPublisher.Close()

	rules, err := cfg.RuleSet()
	if err != nil {
		log.Fatal("Failed to load category rules:", err)
	}

	importMetrics := metrics.NewDefault()
	log.Println("✓ Prometheus metrics initialized")

	catalogRepo := repository.NewCatalogRepository(db)
	mapping := ingest.DefaultMapping

	deps := services.Deps{
		Assembler: ingest.NewAssembler(mapping, classifier.New(rules), cfg.PriceFormat, logrus.NewEntry(logger),
			ingest.WithImageRows(cfg.ImageRows)),
		Reconciler: reconciler.New(catalogRepo, reconciler.Options{
			MaxRetries:  cfg.MaxRetries,
			IsTransient: repository.IsTransient,
		}, logrus.NewEntry(logger)),
		Catalog:     catalogRepo,
		Previews:    previewCache,
		Metrics:     importMetrics,
		Mapping:     mapping,
		PriceFormat: cfg.PriceFormat,
	}
	if eventsPublisher != nil {
		deps.Publisher = eventsPublisher
	}
	importService := services.NewImportService(deps, logger)
	importHandler := handlers.NewImportHandler(importService, cfg.MaxFileBytes, logger)

	checks := map[string]handlers.Pinger{"database": catalogRepo}
	if redisClient != nil {
		checks["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	healthHandler := handlers.NewHealthHandler(checks)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(importMetrics.Handler()))

	api := router.Group("/api/v1")
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
	}
	api.Use(middleware.TenantMiddleware())

	limiter := middleware.PerMinute(cfg.RatePerMinute)
	catalog := api.Group("/catalog")
	{
		catalog.GET("/import/template", importHandler.GetImportTemplate)
		catalog.POST("/import/preview", middleware.RateLimitMiddleware(limiter), importHandler.PreviewImport)
		catalog.POST("/import", middleware.RateLimitMiddleware(limiter), importHandler.ImportProducts)
		catalog.GET("/export", importHandler.ExportProducts)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting catalog-import-service on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down catalog-import-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Catalog import service stopped")
}
