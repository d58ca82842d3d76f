package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/inkfinity/backend/common/auth"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/common/logger"
	commonmw "github.com/inkfinity/backend/common/middleware"
	"github.com/inkfinity/backend/config"
	"github.com/inkfinity/backend/controllers"
	"github.com/inkfinity/backend/database"
	"github.com/inkfinity/backend/events"
	awspkg "github.com/inkfinity/backend/pkg/aws"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/routes"
	"github.com/inkfinity/backend/services"
	"github.com/inkfinity/backend/storage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const serviceName = "inkfinity-api"

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWSOptions())
	if err != nil {
		panic("failed to load AWS config: " + err.Error())
	}

	log, err := newLogger(ctx, cfg, awsCfg)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting "+serviceName,
		zap.String("env", cfg.Env),
		zap.String("catalog", cfg.Catalog.Backend),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("events", cfg.Events.Backend),
	)

	// --- 1. Infrastructure ---

	db, err := database.ConnectPostgres(ctx, cfg.Database.DSN(), log, database.Models()...)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("Failed to close PostgreSQL", zap.Error(err))
		}
	}()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn("Redis unavailable, running without cache", zap.Error(err))
			redisClient = nil
		}
	}

	metrics := awspkg.NewMetricsClient(awsCfg, cfg.CloudWatch.Namespace, cfg.CloudWatch.Enabled)

	images, err := newImageStore(cfg, awsCfg)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	publisher := newPublisher(cfg, awsCfg)
	defer publisher.Close()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal("Failed to initialize token manager", zap.Error(err))
	}

	// --- 2. Dependency Injection ---

	productRepo, categoryRepo := newCatalog(cfg, awsCfg, db)
	blogRepo := repository.NewGormBlogRepository(db)
	inquiryRepo := repository.NewGormInquiryRepository(db)
	settingsRepo := repository.NewGormSettingsRepository(db)
	adminRepo := repository.NewGormAdminRepository(db)

	cache := controllers.NewCacheManager(redisClient, log, metrics)

	productService := services.NewProductService(productRepo, categoryRepo, images, publisher, log)
	categoryService := services.NewCategoryService(categoryRepo, productRepo, images, log)
	blogService := services.NewBlogService(blogRepo, images, log)
	inquiryService := services.NewInquiryService(inquiryRepo, publisher, metrics, log)
	settingsService := services.NewSettingsService(settingsRepo, images, log)
	authService := services.NewAuthService(adminRepo, tokens, log)
	dashboardService := services.NewDashboardService(productRepo, categoryRepo, blogRepo, inquiryRepo)
	uploadService := services.NewUploadService(images)
	trendingService := services.NewTrendingService(productRepo, services.TrendingOptions{
		AtomicSave: cfg.TrendingAtomicSave,
		Cache:      cache,
		Metrics:    metrics,
		Publisher:  publisher,
		Logger:     log,
	})

	handlers := routes.Controllers{
		Products:   controllers.NewProductController(productService, cache, log),
		Categories: controllers.NewCategoryController(categoryService, cache, log),
		Blog:       controllers.NewBlogController(blogService, log),
		Inquiries:  controllers.NewInquiryController(inquiryService, log),
		Settings:   controllers.NewSettingsController(settingsService, cache, log),
		Auth:       controllers.NewAuthController(authService, log),
		Dashboard:  controllers.NewDashboardController(dashboardService, uploadService, log),
		Trending:   controllers.NewTrendingController(trendingService, log),
	}

	// --- 3. HTTP Server & Middleware ---

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = controllers.MaxMultipartMemory
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(log))
	r.Use(gin.Recovery())
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORS(cfg.AllowedOrigins))
	r.Use(commonmw.Timeout(30 * time.Second))
	r.Use(commonmw.MetricsMiddleware(metrics, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	limits := routes.Limiters{
		Contact: commonmw.NewRateLimiter(ctx, rate.Every(time.Minute/time.Duration(cfg.ContactRatePerMinute)), cfg.ContactRatePerMinute, 10*time.Minute),
		Login:   commonmw.NewRateLimiter(ctx, rate.Every(time.Minute/10), 10, 10*time.Minute),
	}
	routes.RegisterRoutes(r, handlers, tokens, limits)

	// --- 4. Graceful Shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down " + serviceName + "...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}

	log.Info(serviceName + " stopped gracefully")
}

// newLogger tees into CloudWatch Logs when enabled. A CloudWatch failure
// falls back to the console logger.
func newLogger(ctx context.Context, cfg *config.Config, awsCfg sdkaws.Config) (*zap.Logger, error) {
	if !cfg.CloudWatch.Enabled {
		return logger.New(cfg.Env)
	}
	sink, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatch.LogGroup, serviceName)
	if err != nil {
		log, lerr := logger.New(cfg.Env)
		if lerr != nil {
			return nil, lerr
		}
		log.Warn("CloudWatch Logs unavailable", zap.Error(err))
		return log, nil
	}
	return logger.NewWithWriter(cfg.Env, sink)
}

func newImageStore(cfg *config.Config, awsCfg sdkaws.Config) (storage.ImageStore, error) {
	if cfg.Storage.Backend == config.StorageCloudinary {
		return storage.NewCloudinaryStore(cfg.Storage.CloudinaryURL, "inkfinity")
	}
	client := awspkg.NewS3Client(awsCfg, cfg.Storage.PathStyle)
	return storage.NewS3Store(client, storage.S3Options{
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.AWS.Region,
		Endpoint:  cfg.AWS.Endpoint,
		CDNDomain: cfg.Storage.CDNDomain,
	}), nil
}

func newPublisher(cfg *config.Config, awsCfg sdkaws.Config) events.Publisher {
	switch cfg.Events.Backend {
	case config.EventsSNS:
		return events.NewSNSPublisher(awspkg.NewSNSClient(awsCfg), cfg.Events.SNSTopicARN)
	case config.EventsKafka:
		return events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
	default:
		return events.NoopPublisher{}
	}
}

// newCatalog returns the product and category stores. Everything else
// always lives in PostgreSQL.
func newCatalog(cfg *config.Config, awsCfg sdkaws.Config, db *gorm.DB) (repository.ProductRepo, repository.CategoryRepo) {
	if cfg.Catalog.Backend == config.BackendDynamoDB {
		client := database.NewDynamoClient(awsCfg, cfg.AWS.Endpoint)
		categories := repository.NewDynamoCategoryRepository(client, cfg.Catalog.CategoriesTable)
		return repository.NewDynamoProductRepository(client, cfg.Catalog.ProductsTable, categories), categories
	}
	return repository.NewGormProductRepository(db), repository.NewGormCategoryRepository(db)
}
