package services

import (
	"context"
	"sort"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
)

// FeedService merges the three collections into one follow-graph filtered, recency sorted feed
type FeedService struct {
	items    repositories.ContentRepository
	likes    repositories.LikeRepository
	profiles *ProfileService
	bus      *realtime.Bus
	limit    int
}

// NewFeedService creates a new FeedService. limit is the per-collection fetch size used when callers pass none.
func NewFeedService(
	items repositories.ContentRepository,
	likes repositories.LikeRepository,
	profiles *ProfileService,
	bus *realtime.Bus,
	limit int,
) *FeedService {
	if limit <= 0 {
		limit = 50
	}
	return &FeedService{items: items, likes: likes, profiles: profiles, bus: bus, limit: limit}
}

// ComposeFeed takes the newest limit items of each collection, keeps those authored by identityID
// or someone it follows, applies filter and sorts newest first.
func (s *FeedService) ComposeFeed(ctx context.Context, identityID string, filter models.FeedFilter, limit int) ([]models.FeedItem, error) {
	if limit <= 0 {
		limit = s.limit
	}
	viewer, err := s.profiles.GetProfile(ctx, identityID)
	if err != nil {
		return nil, err
	}
	visible := make(map[string]bool, len(viewer.FollowingIDs)+1)
	visible[viewer.ID] = true
	for _, id := range viewer.FollowingIDs {
		visible[id] = true
	}

	var merged []models.ContentItem
	liked := make(map[models.ContentKind]map[string]bool)
	for _, kind := range models.AllKinds {
		if !filter.Includes(kind) {
			continue
		}
		recent, err := s.items.RecentItems(ctx, kind, limit)
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, item := range recent {
			if visible[item.AuthorID] {
				merged = append(merged, item)
				ids = append(ids, item.ID)
			}
		}
		marks, err := s.likes.LikedItemIDs(ctx, kind, ids, viewer.ID)
		if err != nil {
			return nil, err
		}
		liked[kind] = marks
	}
	sortNewestFirst(merged)

	authorIDs := make([]string, len(merged))
	for i, item := range merged {
		authorIDs[i] = item.AuthorID
	}
	authors, err := s.profiles.ResolveCompact(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	feed := make([]models.FeedItem, len(merged))
	for i, item := range merged {
		feed[i] = models.FeedItem{
			ContentItem: item,
			Author:      authors[item.AuthorID],
			IsLiked:     liked[item.Kind][item.ID],
		}
	}
	return feed, nil
}

// sortNewestFirst orders by creation time, breaking ties by kind then id so the order is stable across recomputes.
func sortNewestFirst(items []models.ContentItem) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
}

// SubscribeFeed recomputes the whole feed on any change to the collections or to the viewer's follow set.
func (s *FeedService) SubscribeFeed(ctx context.Context, identityID string, filter models.FeedFilter, limit int) (<-chan []models.FeedItem, error) {
	if _, err := s.profiles.GetProfile(ctx, identityID); err != nil {
		return nil, err
	}
	return realtime.Stream(ctx, s.bus, func(ctx context.Context) ([]models.FeedItem, error) {
		return s.ComposeFeed(ctx, identityID, filter, limit)
	}, realtime.FeedTopics(identityID)...)
}
