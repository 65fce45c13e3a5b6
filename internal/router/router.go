package router

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/handlers"
	"github.com/anonto42/preschool-social/backend/internal/middleware"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// Options carries the HTTP-only settings of the routes
type Options struct {
	AllowedOrigins []string
	HealthChecks   map[string]func(ctx context.Context) error
}

// SetupRoutes registers every route on e over the wired services
func SetupRoutes(e *echo.Echo, svc *Services, deps Dependencies, opts Options) {
	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(opts.HealthChecks).HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(svc.Identity).RegisterAuthRoutes(authGroup)
	logger.Debug("auth routes configured")

	// --- Protected routes (session token or identity provider ID token) ---
	api := e.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(svc.Identity))

	handlers.NewUserHandler(svc.Identity, svc.Profiles, svc.Content).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(svc.Profiles).RegisterFollowRoutes(api)
	handlers.NewContentHandler(svc.Content).RegisterContentRoutes(api)
	handlers.NewLikeHandler(svc.Interactions, svc.Content).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(svc.Interactions).RegisterCommentRoutes(api)
	handlers.NewFeedHandler(svc.Feed).RegisterFeedRoutes(api)
	handlers.NewNotificationHandler(svc.Notifications).RegisterNotificationRoutes(api)
	handlers.NewMessageHandler(svc.Messaging).RegisterMessageRoutes(api)
	handlers.NewSearchHandler(svc.Search).RegisterSearchRoutes(api)
	handlers.NewUploadHandler(deps.Blobs).RegisterUploadRoutes(api)
	handlers.NewStreamHandler(
		svc.Profiles,
		svc.Content,
		svc.Interactions,
		svc.Notifications,
		svc.Feed,
		svc.Messaging,
		opts.AllowedOrigins,
	).RegisterStreamRoutes(api)

	logger.Info("routes configured", zap.Int("count", len(e.Routes())))
}
