package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/handlers"
	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/internal/router"
	"github.com/anonto42/preschool-social/backend/internal/services"
	"github.com/anonto42/preschool-social/backend/internal/validators"
	"github.com/anonto42/preschool-social/backend/pkg/config"
	"github.com/anonto42/preschool-social/backend/pkg/firebase"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	if err := cfg.Validate(); err != nil {
		logger.L().Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.L().Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	if err := repositories.AutoMigrate(db.SQL, cfg.ContentStore == config.ContentStoreSQL); err != nil {
		logger.L().Fatal("failed to migrate SQL store", zap.Error(err))
	}

	var mongoDB *mongo.Database
	if db.Mongo != nil {
		mongoDB = db.Mongo.Database(cfg.MongoDatabase)
		if err := repositories.NewMongoContentRepository(mongoDB).EnsureIndexes(ctx); err != nil {
			logger.L().Fatal("failed to create content indexes", zap.Error(err))
		}
	}

	// Initialize Firebase
	fb, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
	if err != nil {
		logger.L().Fatal("failed to initialize Firebase", zap.Error(err))
	}

	bus := realtime.NewBus(logger.L())
	defer bus.Close()

	deps := router.Dependencies{
		SQL:             db.SQL,
		Mongo:           mongoDB,
		Redis:           db.Redis,
		Bus:             bus,
		Verifier:        fb.AuthClient,
		Pusher:          services.NewFCMPusher(fb.MessagingClient),
		JWTSecret:       cfg.JWTSecret,
		SessionTTL:      cfg.SessionTTL,
		ProfileCacheTTL: cfg.ProfileCacheTTL,
		FeedLimit:       cfg.FeedLimit,
	}
	if cfg.FirebaseStorageBucket != "" {
		bucket, err := fb.StorageClient.DefaultBucket()
		if err != nil {
			logger.L().Fatal("failed to open storage bucket", zap.Error(err))
		}
		deps.Blobs = services.NewFirebaseBlobStore(bucket, cfg.FirebaseStorageBucket)
	} else {
		logger.Warn("FIREBASE_STORAGE_BUCKET is not set, uploads are disabled")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler()

	// Setup global middleware
	config.SetupMiddleware(e, cfg)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.NewServices(deps), deps, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		HealthChecks:   healthChecks(db),
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server stopped", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("port", cfg.Port), zap.String("content_store", cfg.ContentStore))

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func healthChecks(db *config.DB) map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{
		"sql": func(ctx context.Context) error {
			sqlDB, err := db.SQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if db.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error { return db.Mongo.Ping(ctx, nil) }
	}
	if db.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return db.Redis.Ping(ctx).Err() }
	}
	return checks
}
