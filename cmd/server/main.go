package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zagrebin/culinaryblog/internal/api"
	"github.com/zagrebin/culinaryblog/internal/cache"
	"github.com/zagrebin/culinaryblog/internal/db"
	"github.com/zagrebin/culinaryblog/internal/models"
	"github.com/zagrebin/culinaryblog/internal/service"
	"github.com/zagrebin/culinaryblog/internal/storage"
	"github.com/zagrebin/culinaryblog/pkg/config"
	"github.com/zagrebin/culinaryblog/pkg/logging"
	"github.com/zagrebin/culinaryblog/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Culinary Blog API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to database and migrate schema
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Post{},
		&models.PostIngredient{},
		&models.RecipeStep{},
		&models.PostLike{},
	); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Optional redis cache (view deduplication)
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	// Media file store
	files, err := storage.NewLocalStore(&cfg.Media)
	if err != nil {
		logger.Fatal("Failed to initialize media store", zap.Error(err))
	}

	// Wire repositories and services
	repo := db.NewRepository(database.DB)
	users := db.NewUserRepository(repo)
	tags := db.NewTagRepository(repo)
	ingredients := db.NewIngredientRepository(repo)
	posts := db.NewPostRepository(repo)
	likes := db.NewLikeRepository(repo)

	assembler := service.NewAssembler(users, tags, ingredients, posts)
	likeService := service.NewLikeService(likes, posts, users)
	postService := service.NewPostService(posts, users, assembler, likeService, files, redisCache)

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Serve stored media
	router.Static(cfg.Media.PublicPrefix, cfg.Media.Root)

	apiRouter := api.NewRouter(postService, likeService, tags, ingredients, files)
	apiRouter.SetupRoutes(router)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
