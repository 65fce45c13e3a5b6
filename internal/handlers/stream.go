package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamHandler serves live views over WebSockets. Each connection gets the current
// snapshot right away and a fresh one after every change.
type StreamHandler struct {
	profiles      *services.ProfileService
	content       *services.ContentService
	interactions  *services.InteractionService
	notifications *services.NotificationService
	feed          *services.FeedService
	messaging     *services.MessagingService
	upgrader      websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler. allowedOrigins may contain "*".
func NewStreamHandler(
	profiles *services.ProfileService,
	content *services.ContentService,
	interactions *services.InteractionService,
	notifications *services.NotificationService,
	feed *services.FeedService,
	messaging *services.MessagingService,
	allowedOrigins []string,
) *StreamHandler {
	return &StreamHandler{
		profiles:      profiles,
		content:       content,
		interactions:  interactions,
		notifications: notifications,
		feed:          feed,
		messaging:     messaging,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// RegisterStreamRoutes registers the WebSocket routes
func (h *StreamHandler) RegisterStreamRoutes(g *echo.Group) {
	g.GET("/stream/feed", h.StreamFeed)
	g.GET("/stream/notifications", h.StreamNotifications)
	g.GET("/stream/profiles/:id", h.StreamProfile)
	g.GET("/stream/content/:kind", h.StreamCollection)
	g.GET("/stream/content/:kind/:id/comments", h.StreamComments)
	g.GET("/stream/messages/:userId", h.StreamThread)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (h *StreamHandler) StreamFeed(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}
	filter, err := feedFilterParam(c)
	if err != nil {
		return err
	}
	limit := limitParam(c, 0, 200)
	return serveStream(c, &h.upgrader, func(ctx context.Context) (<-chan []models.FeedItem, error) {
		return h.feed.SubscribeFeed(ctx, uid, filter, limit)
	}, nil)
}

// StreamNotifications marks everything read on connect and again whenever a delivered
// snapshot still had unread entries. The client sees each entry unread exactly once.
func (h *StreamHandler) StreamNotifications(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}
	return serveStream(c, &h.upgrader, func(ctx context.Context) (<-chan []models.Notification, error) {
		return h.notifications.Subscribe(ctx, uid)
	}, func(ctx context.Context, list []models.Notification) {
		var unread []string
		for _, n := range list {
			if !n.Read {
				unread = append(unread, n.ID)
			}
		}
		if len(unread) == 0 {
			return
		}
		if _, err := h.notifications.MarkRead(ctx, uid, unread); err != nil {
			logger.Warn("mark streamed notifications read", zap.String("recipient", uid), zap.Error(err))
		}
	})
}

func (h *StreamHandler) StreamProfile(c echo.Context) error {
	if _, err := currentUID(c); err != nil {
		return err
	}
	id := c.Param("id")
	return serveStream(c, &h.upgrader, func(ctx context.Context) (<-chan *models.Profile, error) {
		return h.profiles.SubscribeProfile(ctx, id)
	}, nil)
}

func (h *StreamHandler) StreamCollection(c echo.Context) error {
	if _, err := currentUID(c); err != nil {
		return err
	}
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	limit := limitParam(c, 50, 200)
	return serveStream(c, &h.upgrader, func(ctx context.Context) (<-chan []models.ContentItem, error) {
		return h.content.SubscribeCollection(ctx, kind, limit)
	}, nil)
}

func (h *StreamHandler) StreamComments(c echo.Context) error {
	if _, err := currentUID(c); err != nil {
		return err
	}
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	return serveStream(c, &h.upgrader, func(ctx context.Context) (<-chan []models.CommentView, error) {
		return h.interactions.SubscribeComments(ctx, kind, id)
	}, nil)
}

// StreamThread keeps the conversation open; incoming messages are marked read as they are delivered
func (h *StreamHandler) StreamThread(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}
	other := c.Param("userId")
	return serveStream(c, &h.upgrader, func(ctx context.Context) (<-chan []models.Message, error) {
		return h.messaging.OpenThread(ctx, uid, other)
	}, nil)
}

// serveStream subscribes before upgrading, so a failed subscription is still answered with a
// regular HTTP error. After the upgrade every snapshot is written as one JSON text frame until
// the client goes away. delivered, when set, runs after each successful write.
func serveStream[T any](
	c echo.Context,
	upgrader *websocket.Upgrader,
	open func(ctx context.Context) (<-chan T, error),
	delivered func(ctx context.Context, v T),
) error {
	// The request context is not reliably cancelled once the connection is hijacked,
	// so the reader goroutine below owns cancellation.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()

	updates, err := open(ctx)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		return nil
	}
	defer conn.Close()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case v, ok := <-updates:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(v); err != nil {
				logger.Debug("stream write failed", zap.String("path", c.Path()), zap.Error(err))
				return nil
			}
			if delivered != nil {
				delivered(ctx, v)
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}
