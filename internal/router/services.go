package router

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// Dependencies are the process-wide clients everything else is built on.
// Mongo, Redis, Verifier, Pusher and Blobs are optional.
type Dependencies struct {
	SQL             *gorm.DB
	Mongo           *mongo.Database
	Redis           *redis.Client
	Bus             *realtime.Bus
	Verifier        services.TokenVerifier
	Pusher          services.Pusher
	Blobs           services.BlobStore
	JWTSecret       string
	SessionTTL      time.Duration
	ProfileCacheTTL time.Duration
	FeedLimit       int
}

// Services is the wired service layer
type Services struct {
	Items         repositories.ContentRepository
	Identity      *services.IdentityService
	Profiles      *services.ProfileService
	Content       *services.ContentService
	Interactions  *services.InteractionService
	Notifications *services.NotificationService
	Feed          *services.FeedService
	Messaging     *services.MessagingService
	Search        *services.SearchService
}

// NewServices builds the repositories and services. Content lives in Mongo when a
// database is given and in the SQL store otherwise.
func NewServices(deps Dependencies) *Services {
	var items repositories.ContentRepository
	if deps.Mongo != nil {
		items = repositories.NewMongoContentRepository(deps.Mongo)
	} else {
		items = repositories.NewSQLContentRepository(deps.SQL)
	}

	users := repositories.NewSQLUserRepository(deps.SQL)
	likes := repositories.NewSQLLikeRepository(deps.SQL)
	comments := repositories.NewSQLCommentRepository(deps.SQL)

	s := &Services{Items: items}
	s.Notifications = services.NewNotificationService(
		repositories.NewSQLNotificationRepository(deps.SQL),
		repositories.NewSQLDeviceRepository(deps.SQL),
		deps.Pusher,
		deps.Bus,
	)
	s.Profiles = services.NewProfileService(
		users,
		repositories.NewSQLFollowRepository(deps.SQL),
		services.NewProfileCache(deps.Redis, deps.ProfileCacheTTL),
		deps.Bus,
		s.Notifications,
	)
	s.Content = services.NewContentService(items, likes, comments, s.Profiles, s.Notifications, deps.Bus)
	s.Interactions = services.NewInteractionService(s.Content, items, likes, comments, s.Profiles, s.Notifications, deps.Bus)
	s.Feed = services.NewFeedService(items, likes, s.Profiles, deps.Bus, deps.FeedLimit)
	s.Messaging = services.NewMessagingService(repositories.NewSQLMessageRepository(deps.SQL), s.Profiles, s.Notifications, deps.Bus)
	s.Search = services.NewSearchService(users, items)
	s.Identity = services.NewIdentityService(deps.Verifier, services.NewSessionIssuer(deps.JWTSecret, deps.SessionTTL), s.Profiles)
	return s
}
