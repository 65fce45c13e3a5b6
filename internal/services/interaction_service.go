package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// InteractionService implements likes and comments. Every counter change is an atomic store-side
// increment; when it fails the mark or comment written just before is removed again.
type InteractionService struct {
	content  *ContentService
	items    repositories.ContentRepository
	likes    repositories.LikeRepository
	comments repositories.CommentRepository
	profiles *ProfileService
	notifier Notifier
	bus      *realtime.Bus
}

// NewInteractionService creates a new InteractionService
func NewInteractionService(
	content *ContentService,
	items repositories.ContentRepository,
	likes repositories.LikeRepository,
	comments repositories.CommentRepository,
	profiles *ProfileService,
	notifier Notifier,
	bus *realtime.Bus,
) *InteractionService {
	return &InteractionService{
		content:  content,
		items:    items,
		likes:    likes,
		comments: comments,
		profiles: profiles,
		notifier: notifier,
		bus:      bus,
	}
}

// Like records that actorID likes the item and returns the refreshed item.
func (s *InteractionService) Like(ctx context.Context, kind models.ContentKind, itemID, actorID string) (*models.ContentItem, error) {
	item, err := s.content.Get(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}
	created, err := s.likes.CreateLike(ctx, kind, itemID, actorID)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrAlreadyLiked
	}
	if err := s.content.AdjustCounter(ctx, kind, itemID, models.CounterLikes, 1); err != nil {
		if _, undoErr := s.likes.DeleteLike(ctx, kind, itemID, actorID); undoErr != nil {
			logger.Error("undo like mark", zap.String("item", itemID), zap.String("actor", actorID), zap.Error(undoErr))
		}
		return nil, err
	}
	s.bus.Publish(realtime.LikesTopic(kind, itemID))

	// An Unlike that ran between the mark and the increment had its decrement refused,
	// so the increment just applied has no mark behind it.
	if still, err := s.likes.HasLiked(ctx, kind, itemID, actorID); err == nil && !still {
		s.repairCounters(ctx, kind, itemID, "like mark removed before increment")
	}

	s.notifyOwner(ctx, item, actorID, models.NotificationLike, "")
	return s.content.Get(ctx, kind, itemID)
}

// Unlike removes actorID's like and returns the refreshed item. No notification is sent.
func (s *InteractionService) Unlike(ctx context.Context, kind models.ContentKind, itemID, actorID string) (*models.ContentItem, error) {
	if _, err := s.content.Get(ctx, kind, itemID); err != nil {
		return nil, err
	}
	deleted, err := s.likes.DeleteLike(ctx, kind, itemID, actorID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrNotLiked
	}
	err = s.content.AdjustCounter(ctx, kind, itemID, models.CounterLikes, -1)
	if errors.Is(err, repositories.ErrCounterFloor) {
		// The mark is gone but the count never saw it, usually a Like still between its two steps.
		s.repairCounters(ctx, kind, itemID, "like decrement refused at zero")
		err = nil
	}
	if err != nil {
		if _, undoErr := s.likes.CreateLike(ctx, kind, itemID, actorID); undoErr != nil {
			logger.Error("restore like mark", zap.String("item", itemID), zap.String("actor", actorID), zap.Error(undoErr))
		}
		return nil, err
	}
	s.bus.Publish(realtime.LikesTopic(kind, itemID))
	return s.content.Get(ctx, kind, itemID)
}

func (s *InteractionService) HasLiked(ctx context.Context, kind models.ContentKind, itemID, actorID string) (bool, error) {
	if !kind.Valid() {
		return false, ErrInvalidKind
	}
	return s.likes.HasLiked(ctx, kind, itemID, actorID)
}

// AddComment appends a comment and returns the item's refreshed comment list.
func (s *InteractionService) AddComment(ctx context.Context, kind models.ContentKind, itemID, actorID, body string) ([]models.CommentView, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	item, err := s.content.Get(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{
		ItemKind:  kind,
		ItemID:    itemID,
		AuthorID:  actorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.content.AdjustCounter(ctx, kind, itemID, models.CounterComments, 1); err != nil {
		if undoErr := s.comments.DeleteComment(ctx, comment.ID); undoErr != nil {
			logger.Error("undo comment", zap.String("item", itemID), zap.String("comment", comment.ID), zap.Error(undoErr))
		}
		return nil, err
	}
	s.bus.Publish(realtime.CommentsTopic(kind, itemID))

	s.notifyOwner(ctx, item, actorID, models.NotificationComment, models.Truncate(body, models.ExcerptLength))
	return s.ListComments(ctx, kind, itemID)
}

// ListComments returns the item's comments oldest first, each with its author's snapshot.
func (s *InteractionService) ListComments(ctx context.Context, kind models.ContentKind, itemID string) ([]models.CommentView, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	comments, err := s.comments.GetCommentsByItem(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.AuthorID
	}
	authors, err := s.profiles.ResolveCompact(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, len(comments))
	for i, c := range comments {
		views[i] = models.CommentView{Comment: c, Author: authors[c.AuthorID]}
	}
	return views, nil
}

// SubscribeComments streams the resolved comment list now and after every new comment.
func (s *InteractionService) SubscribeComments(ctx context.Context, kind models.ContentKind, itemID string) (<-chan []models.CommentView, error) {
	if _, err := s.content.Get(ctx, kind, itemID); err != nil {
		return nil, err
	}
	return realtime.Stream(ctx, s.bus, func(ctx context.Context) ([]models.CommentView, error) {
		return s.ListComments(ctx, kind, itemID)
	}, realtime.CommentsTopic(kind, itemID))
}

func (s *InteractionService) notifyOwner(ctx context.Context, item *models.ContentItem, actorID string, kind models.NotificationKind, excerpt string) {
	if item.AuthorID == actorID {
		return
	}
	actor, err := s.profiles.GetProfile(ctx, actorID)
	if err != nil {
		logger.Warn("load actor for notification", zap.String("actor", actorID), zap.Error(err))
		return
	}
	payload := models.NotificationPayload{
		ItemKind:  item.Kind,
		ItemID:    item.ID,
		ItemTitle: item.Title,
		Excerpt:   excerpt,
	}
	if err := s.notifier.Notify(ctx, item.AuthorID, kind, actor, payload); err != nil {
		logger.Warn("interaction notification", zap.String("kind", string(kind)), zap.String("item", item.ID), zap.Error(err))
	}
}

// Reconcile recounts the item's like marks and comments and rewrites both counters.
// It reports whether either counter had drifted.
func (s *InteractionService) Reconcile(ctx context.Context, kind models.ContentKind, itemID string) (bool, error) {
	item, err := s.content.Get(ctx, kind, itemID)
	if err != nil {
		return false, err
	}
	likes, err := s.likes.CountLikes(ctx, kind, itemID)
	if err != nil {
		return false, err
	}
	comments, err := s.comments.CountComments(ctx, kind, itemID)
	if err != nil {
		return false, err
	}
	if item.LikeCount == likes && item.CommentCount == comments {
		return false, nil
	}
	if err := s.items.SetCounters(ctx, kind, itemID, likes, comments); err != nil {
		return false, err
	}
	logger.Info("counters reconciled",
		zap.String("kind", string(kind)), zap.String("item", itemID),
		zap.Int64("likes", likes), zap.Int64("comments", comments))
	s.bus.Publish(realtime.CollectionTopic(kind))
	return true, nil
}

// repairCounters reconciles an item whose counter was found out of step with its marks.
// The caller's operation has already succeeded, so failures are only logged.
func (s *InteractionService) repairCounters(ctx context.Context, kind models.ContentKind, itemID, reason string) {
	logger.Warn("like counter drift", zap.String("kind", string(kind)), zap.String("item", itemID), zap.String("reason", reason))
	if _, err := s.Reconcile(ctx, kind, itemID); err != nil {
		logger.Error("reconcile counters", zap.String("kind", string(kind)), zap.String("item", itemID), zap.Error(err))
	}
}

// ReconcileAll runs Reconcile over every item of a collection and returns how many were repaired.
func (s *InteractionService) ReconcileAll(ctx context.Context, kind models.ContentKind) (int, error) {
	if !kind.Valid() {
		return 0, ErrInvalidKind
	}
	ids, err := s.items.ListItemIDs(ctx, kind)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, id := range ids {
		changed, err := s.Reconcile(ctx, kind, id)
		if err != nil {
			return repaired, err
		}
		if changed {
			repaired++
		}
	}
	return repaired, nil
}
