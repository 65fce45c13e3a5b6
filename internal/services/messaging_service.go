package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// MessagingService is the direct message channel between two identities
type MessagingService struct {
	messages repositories.MessageRepository
	profiles *ProfileService
	notifier Notifier
	bus      *realtime.Bus
}

// NewMessagingService creates a new MessagingService
func NewMessagingService(
	messages repositories.MessageRepository,
	profiles *ProfileService,
	notifier Notifier,
	bus *realtime.Bus,
) *MessagingService {
	return &MessagingService{messages: messages, profiles: profiles, notifier: notifier, bus: bus}
}

// ListContacts returns everyone identityID follows or is followed by.
func (s *MessagingService) ListContacts(ctx context.Context, identityID string) ([]models.Profile, error) {
	return s.profiles.ListContacts(ctx, identityID)
}

// SendMessage appends an unread message and notifies the receiver.
func (s *MessagingService) SendMessage(ctx context.Context, senderID, receiverID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	sender, err := s.profiles.GetProfile(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetProfile(ctx, receiverID); err != nil {
		return nil, err
	}
	msg := &models.Message{
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Body:         body,
		SentAtMillis: time.Now().UnixMilli(),
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.bus.Publish(realtime.ThreadTopic(senderID, receiverID))

	payload := models.NotificationPayload{Excerpt: models.Truncate(body, models.ExcerptLength)}
	if err := s.notifier.Notify(ctx, receiverID, models.NotificationMessage, sender, payload); err != nil {
		logger.Warn("message notification", zap.String("sender", senderID), zap.String("receiver", receiverID), zap.Error(err))
	}
	return msg, nil
}

// Thread returns the pair's messages, oldest first.
func (s *MessagingService) Thread(ctx context.Context, viewerID, otherID string) ([]models.Message, error) {
	return s.messages.GetThread(ctx, viewerID, otherID)
}

// MarkThreadRead flips every unread message from otherID to viewerID.
func (s *MessagingService) MarkThreadRead(ctx context.Context, viewerID, otherID string) (int64, error) {
	changed, err := s.messages.MarkThreadRead(ctx, viewerID, otherID)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.bus.Publish(realtime.ThreadTopic(viewerID, otherID))
	}
	return changed, nil
}

// OpenThread streams the pair's messages while the viewer has the thread open.
// Each delivery first marks the viewer's incoming messages read.
func (s *MessagingService) OpenThread(ctx context.Context, viewerID, otherID string) (<-chan []models.Message, error) {
	if _, err := s.profiles.GetProfile(ctx, otherID); err != nil {
		return nil, err
	}
	return realtime.Stream(ctx, s.bus, func(ctx context.Context) ([]models.Message, error) {
		if _, err := s.MarkThreadRead(ctx, viewerID, otherID); err != nil {
			return nil, err
		}
		return s.Thread(ctx, viewerID, otherID)
	}, realtime.ThreadTopic(viewerID, otherID))
}

// UnreadCount counts messages addressed to identityID that were never opened.
func (s *MessagingService) UnreadCount(ctx context.Context, identityID string) (int64, error) {
	return s.messages.GetUnreadCount(ctx, identityID)
}
