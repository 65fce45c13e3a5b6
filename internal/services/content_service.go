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

// ContentService manages the share, project and activity collections
type ContentService struct {
	repo     repositories.ContentRepository
	likes    repositories.LikeRepository
	comments repositories.CommentRepository
	profiles *ProfileService
	notifier Notifier
	bus      *realtime.Bus
}

// NewContentService creates a new ContentService
func NewContentService(
	repo repositories.ContentRepository,
	likes repositories.LikeRepository,
	comments repositories.CommentRepository,
	profiles *ProfileService,
	notifier Notifier,
	bus *realtime.Bus,
) *ContentService {
	return &ContentService{repo: repo, likes: likes, comments: comments, profiles: profiles, notifier: notifier, bus: bus}
}

// Create stores a new item authored by authorID. item.Kind selects the collection and the matching body must be set.
func (s *ContentService) Create(ctx context.Context, authorID string, item *models.ContentItem) (*models.ContentItem, error) {
	if !item.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	author, err := s.profiles.GetProfile(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !author.Completed() {
		return nil, ErrProfileIncomplete
	}
	if err := normalizeBody(item, authorID); err != nil {
		return nil, err
	}

	item.ID = ""
	item.AuthorID = authorID
	item.LikeCount = 0
	item.CommentCount = 0
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.CreatedAt = item.CreatedAt.UTC().Truncate(time.Millisecond)
	item.Prepare()

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.bus.Publish(realtime.CollectionTopic(item.Kind))

	if item.Kind == models.KindShare {
		s.notifyMentions(ctx, author, item)
	}
	return item, nil
}

// normalizeBody keeps only the body matching item.Kind and applies the per-kind rules.
func normalizeBody(item *models.ContentItem, authorID string) error {
	switch item.Kind {
	case models.KindShare:
		item.Project, item.Activity = nil, nil
		if item.Share == nil {
			return ErrEmptyBody
		}
		item.Share.Text = strings.TrimSpace(item.Share.Text)
		if item.Share.Text == "" {
			return ErrEmptyBody
		}
		item.Share.MentionedIDs = dedupe(item.Share.MentionedIDs)
	case models.KindProject:
		item.Share, item.Activity = nil, nil
		if item.Project == nil || strings.TrimSpace(item.Project.Title) == "" {
			return ErrEmptyBody
		}
		// the creator always takes part in their own project
		item.Project.ParticipantIDs = dedupe(append([]string{authorID}, item.Project.ParticipantIDs...))
	case models.KindActivity:
		item.Share, item.Project = nil, nil
		if item.Activity == nil || strings.TrimSpace(item.Activity.Title) == "" {
			return ErrEmptyBody
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *ContentService) notifyMentions(ctx context.Context, author *models.Profile, item *models.ContentItem) {
	payload := models.NotificationPayload{
		ItemKind:  item.Kind,
		ItemID:    item.ID,
		ItemTitle: item.Title,
		Excerpt:   models.Excerpt(item.Share.Text, models.ExcerptLength),
	}
	for _, id := range item.Share.MentionedIDs {
		if err := s.notifier.Notify(ctx, id, models.NotificationMention, author, payload); err != nil {
			logger.Warn("mention notification", zap.String("item", item.ID), zap.String("recipient", id), zap.Error(err))
		}
	}
}

// Get returns one item or ErrNotFound.
func (s *ContentService) Get(ctx context.Context, kind models.ContentKind, id string) (*models.ContentItem, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.repo.GetItem(ctx, kind, id)
}

// Recent returns the newest limit items of a collection.
func (s *ContentService) Recent(ctx context.Context, kind models.ContentKind, limit int) ([]models.ContentItem, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.repo.RecentItems(ctx, kind, limit)
}

func (s *ContentService) ListByAuthor(ctx context.Context, kind models.ContentKind, authorID string, limit int) ([]models.ContentItem, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.repo.ItemsByAuthor(ctx, kind, authorID, limit)
}

// SubscribeCollection streams the newest limit items now and after every change to the collection.
func (s *ContentService) SubscribeCollection(ctx context.Context, kind models.ContentKind, limit int) (<-chan []models.ContentItem, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return realtime.Stream(ctx, s.bus, func(ctx context.Context) ([]models.ContentItem, error) {
		return s.repo.RecentItems(ctx, kind, limit)
	}, realtime.CollectionTopic(kind))
}

// Delete removes an item with its likes and comments. Only the author may delete.
func (s *ContentService) Delete(ctx context.Context, kind models.ContentKind, id, actorID string) error {
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	if item.AuthorID != actorID {
		return ErrForbidden
	}
	if err := s.repo.DeleteItem(ctx, kind, id); err != nil {
		return err
	}
	if err := s.likes.DeleteLikesByItem(ctx, kind, id); err != nil {
		logger.Warn("delete likes of removed item", zap.String("item", id), zap.Error(err))
	}
	if err := s.comments.DeleteCommentsByItem(ctx, kind, id); err != nil {
		logger.Warn("delete comments of removed item", zap.String("item", id), zap.Error(err))
	}
	s.bus.Publish(realtime.CollectionTopic(kind), realtime.CommentsTopic(kind, id), realtime.LikesTopic(kind, id))
	return nil
}

// AdjustCounter is the only way a like or comment counter changes.
func (s *ContentService) AdjustCounter(ctx context.Context, kind models.ContentKind, id, counter string, delta int64) error {
	if err := s.repo.AdjustCounter(ctx, kind, id, counter, delta); err != nil {
		return err
	}
	s.bus.Publish(realtime.CollectionTopic(kind))
	return nil
}
