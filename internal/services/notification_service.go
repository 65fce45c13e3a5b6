package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// NotificationService fans notifications out to recipients and manages their lists
type NotificationService struct {
	repo    repositories.NotificationRepository
	devices repositories.DeviceRepository
	pusher  Pusher
	bus     *realtime.Bus
	limit   int
}

// NewNotificationService creates a new NotificationService. pusher may be nil.
func NewNotificationService(
	repo repositories.NotificationRepository,
	devices repositories.DeviceRepository,
	pusher Pusher,
	bus *realtime.Bus,
) *NotificationService {
	return &NotificationService{repo: repo, devices: devices, pusher: pusher, bus: bus, limit: 100}
}

// Notify appends an unread notification. An identity is never notified of its own action.
func (s *NotificationService) Notify(ctx context.Context, recipientID string, kind models.NotificationKind, sender *models.Profile, payload models.NotificationPayload) error {
	if recipientID == "" || sender == nil || sender.ID == recipientID {
		return nil
	}
	n := &models.Notification{
		RecipientID:       recipientID,
		Kind:              kind,
		SenderID:          sender.ID,
		SenderDisplayName: sender.DisplayName,
		ItemKind:          payload.ItemKind,
		ItemID:            payload.ItemID,
		ItemTitle:         payload.ItemTitle,
		Excerpt:           payload.Excerpt,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return err
	}
	s.bus.Publish(realtime.NotificationsTopic(recipientID))
	s.push(ctx, n)
	return nil
}

// push is best effort: a failed push never fails the notification.
func (s *NotificationService) push(ctx context.Context, n *models.Notification) {
	if s.pusher == nil || s.devices == nil {
		return
	}
	tokens, err := s.devices.GetTokens(ctx, n.RecipientID)
	if err != nil || len(tokens) == 0 {
		return
	}
	title, body := describe(n)
	data := map[string]string{"kind": string(n.Kind), "sender_id": n.SenderID}
	if n.ItemID != "" {
		data["item_kind"] = string(n.ItemKind)
		data["item_id"] = n.ItemID
	}
	stale, err := s.pusher.Push(ctx, tokens, title, body, data)
	if err != nil {
		logger.Warn("push notification", zap.String("recipient", n.RecipientID), zap.Error(err))
		return
	}
	for _, token := range stale {
		if err := s.devices.DeleteDevice(ctx, token); err != nil {
			logger.Warn("prune device token", zap.String("recipient", n.RecipientID), zap.Error(err))
		}
	}
}

func describe(n *models.Notification) (title, body string) {
	switch n.Kind {
	case models.NotificationFollow:
		return "New follower", n.SenderDisplayName + " started following you"
	case models.NotificationMessage:
		return n.SenderDisplayName, n.Excerpt
	case models.NotificationMention:
		return "You were mentioned", n.SenderDisplayName + " mentioned you: " + n.Excerpt
	case models.NotificationComment:
		return "New comment", n.SenderDisplayName + " commented on " + n.ItemTitle + ": " + n.Excerpt
	case models.NotificationLike:
		return "New like", n.SenderDisplayName + " liked " + n.ItemTitle
	}
	return "Notification", n.SenderDisplayName
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID string) ([]models.Notification, error) {
	return s.repo.GetByRecipientID(ctx, recipientID, s.limit)
}

// Subscribe streams the list now and after every change until ctx ends. It does not mark anything read.
func (s *NotificationService) Subscribe(ctx context.Context, recipientID string) (<-chan []models.Notification, error) {
	return realtime.Stream(ctx, s.bus, func(ctx context.Context) ([]models.Notification, error) {
		return s.List(ctx, recipientID)
	}, realtime.NotificationsTopic(recipientID))
}

// MarkRead flips the given notifications to read, or all of them when ids is empty.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	changed, err := s.repo.MarkAsRead(ctx, recipientID, ids)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.bus.Publish(realtime.NotificationsTopic(recipientID))
	}
	return changed, nil
}

// Dismiss deletes one notification.
func (s *NotificationService) Dismiss(ctx context.Context, recipientID, id string) error {
	if err := s.repo.DeleteNotification(ctx, recipientID, id); err != nil {
		return err
	}
	s.bus.Publish(realtime.NotificationsTopic(recipientID))
	return nil
}

// ClearAll deletes the whole list.
func (s *NotificationService) ClearAll(ctx context.Context, recipientID string) error {
	deleted, err := s.repo.DeleteAll(ctx, recipientID)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.bus.Publish(realtime.NotificationsTopic(recipientID))
	}
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.GetUnreadCount(ctx, recipientID)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, identityID, token string) error {
	return s.devices.SaveDevice(ctx, identityID, token)
}

// UnregisterDevice removes a token registered by identityID.
func (s *NotificationService) UnregisterDevice(ctx context.Context, identityID, token string) error {
	tokens, err := s.devices.GetTokens(ctx, identityID)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		if t == token {
			return s.devices.DeleteDevice(ctx, token)
		}
	}
	return ErrNotFound
}
