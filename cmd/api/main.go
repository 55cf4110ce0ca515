package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fekuna/omnipos-catalog-service/config"
	brandH "github.com/fekuna/omnipos-catalog-service/internal/brand/handler"
	"github.com/fekuna/omnipos-catalog-service/internal/cache"
	catH "github.com/fekuna/omnipos-catalog-service/internal/category/handler"
	"github.com/fekuna/omnipos-catalog-service/internal/health"
	"github.com/fekuna/omnipos-catalog-service/internal/image"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	prodH "github.com/fekuna/omnipos-catalog-service/internal/product/handler"
	prodListenerPkg "github.com/fekuna/omnipos-catalog-service/internal/product/listener"
	prodUCPkg "github.com/fekuna/omnipos-catalog-service/internal/product/usecase"
	"github.com/fekuna/omnipos-catalog-service/internal/server"
	subH "github.com/fekuna/omnipos-catalog-service/internal/subcategory/handler"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

const (
	healthInterval  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     !cfg.Server.IsProduction(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to the store
	repos, err := openStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Could not open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer repos.close()
	appLogger.Info("Store ready", zap.String("driver", cfg.Store.Driver))

	// 4. Initialize Redis list cache
	var listCache cache.ListCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		listCache = cache.NewRedisListCache(redisClient, cfg.Redis.TTL, appLogger)
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Initialize image storage
	urls := image.URLs{BaseURL: cfg.Server.BaseURL}
	var storage image.Storage
	uploadDir := ""
	switch cfg.Storage.Driver {
	case "s3":
		s3Client, err := image.NewS3Client(cfg.Storage)
		if err != nil {
			appLogger.Fatal("Could not create S3 client", zap.Error(err))
		}
		storage = image.NewS3Storage(s3Client, cfg.Storage.S3Bucket)
		urls.BaseURL = image.S3PublicURL(cfg.Storage)
		appLogger.Info("Storing images in S3", zap.String("bucket", cfg.Storage.S3Bucket))
	default:
		storage = image.NewDiskStorage(cfg.Storage.UploadDir)
		uploadDir = cfg.Storage.UploadDir
		appLogger.Info("Storing images on disk", zap.String("dir", uploadDir))
	}
	uploader := image.NewUploader(storage, appLogger)

	// 6. Initialize UseCases
	prodUC := prodUCPkg.NewProductUseCase(repos.products, repos.categories, listCache, urls, appLogger)

	// 6.5 Start the stock listener
	if cfg.Kafka.Enabled {
		reader := prodListenerPkg.NewKafkaReader(cfg.Kafka)
		defer reader.Close()
		go prodListenerPkg.NewStockListener(reader, prodUC, appLogger).Start(ctx)
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 7. Initialize Handlers
	rules := validator.New()
	checker := health.NewChecker(repos.pinger, healthInterval, appLogger)
	go checker.Run(ctx)

	router := server.NewRouter(server.RouterOptions{
		Production: cfg.Server.IsProduction(),
		UploadDir:  uploadDir,
		ImageDirs: []string{
			model.CategorySchema.ImageDir,
			model.BrandSchema.ImageDir,
			model.ProductSchema.ImageDir,
		},
		Health: checker.Handler(),
	}, appLogger,
		catH.NewCategoryHandler(repos.categories, uploader, urls, rules, listCache, appLogger),
		subH.NewSubcategoryHandler(repos.subcategories, repos.categories, rules, listCache, appLogger),
		brandH.NewBrandHandler(repos.brands, uploader, urls, rules, listCache, appLogger),
		prodH.NewProductHandler(prodH.Repositories{
			Products:      repos.products,
			Categories:    repos.categories,
			Subcategories: repos.subcategories,
			Brands:        repos.brands,
		}, prodUC, uploader, rules, listCache, appLogger),
	)

	// 8. Start gRPC health server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, checker.Server())
	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", port))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()

	// 9. Start HTTP server
	httpServer := server.NewHTTPServer(cfg.Server, router)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
