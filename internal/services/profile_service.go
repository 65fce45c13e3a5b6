package services

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// Notifier appends a notification to a recipient's list.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind models.NotificationKind, sender *models.Profile, payload models.NotificationPayload) error
}

// ProfileService reads and writes profile records and the follow graph
type ProfileService struct {
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	cache    ProfileCache
	bus      *realtime.Bus
	notifier Notifier
}

// NewProfileService creates a new ProfileService
func NewProfileService(
	users repositories.UserRepository,
	follows repositories.FollowRepository,
	cache ProfileCache,
	bus *realtime.Bus,
	notifier Notifier,
) *ProfileService {
	if cache == nil {
		cache = noopProfileCache{}
	}
	return &ProfileService{users: users, follows: follows, cache: cache, bus: bus, notifier: notifier}
}

// CreateProfile registers a new identity with empty follow sets.
func (s *ProfileService) CreateProfile(ctx context.Context, profile *models.Profile) error {
	profile.Normalize()
	profile.FollowerIDs = []string{}
	profile.FollowingIDs = []string{}
	if err := s.users.CreateUser(ctx, profile); err != nil {
		return err
	}
	s.bus.Publish(realtime.ProfileTopic(profile.ID))
	return nil
}

// GetProfile returns the profile with its follow sets, or ErrNotFound.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	if profile, ok := s.cache.Get(ctx, id); ok {
		return profile, nil
	}
	profile, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, profile)
	return profile, nil
}

// SubscribeProfile streams the profile now and after every change until ctx ends.
func (s *ProfileService) SubscribeProfile(ctx context.Context, id string) (<-chan *models.Profile, error) {
	if _, err := s.GetProfile(ctx, id); err != nil {
		return nil, err
	}
	return realtime.Stream(ctx, s.bus, func(ctx context.Context) (*models.Profile, error) {
		return s.GetProfile(ctx, id)
	}, realtime.ProfileTopic(id))
}

// SaveProfile overwrites every field of the stored record with profile's.
// Follow sets are derived from the follow graph and are not written.
func (s *ProfileService) SaveProfile(ctx context.Context, profile *models.Profile) error {
	profile.Normalize()
	if err := s.users.SaveUser(ctx, profile); err != nil {
		return err
	}
	s.changed(ctx, profile.ID)
	return nil
}

// UpdateProfile merges the non-empty fields of req into the stored profile and saves it.
func (s *ProfileService) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.Profile, error) {
	profile, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != "" {
		profile.DisplayName = req.DisplayName
	}
	if req.Handle != "" {
		profile.Handle = strings.ToLower(strings.TrimSpace(req.Handle))
	}
	if req.Bio != "" {
		profile.Bio = req.Bio
	}
	if req.Location != "" {
		profile.Location = req.Location
	}
	if req.AvatarURL != "" {
		profile.AvatarURL = req.AvatarURL
	}
	if err := s.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// CompleteProfile performs the one-time completion step.
func (s *ProfileService) CompleteProfile(ctx context.Context, id string, req models.CompleteProfileRequest) (*models.Profile, error) {
	profile, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile.Bio = strings.TrimSpace(req.Bio)
	profile.Location = strings.TrimSpace(req.Location)
	profile.AvatarURL = strings.TrimSpace(req.AvatarURL)
	if err := s.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Follow makes actorID follow targetID. Following twice is a no-op.
func (s *ProfileService) Follow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfFollow
	}
	created, err := s.follows.CreateFollow(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	s.changed(ctx, actorID, targetID)

	actor, err := s.GetProfile(ctx, actorID)
	if err != nil {
		logger.Warn("load follower for notification", zap.String("actor", actorID), zap.Error(err))
		return nil
	}
	if err := s.notifier.Notify(ctx, targetID, models.NotificationFollow, actor, models.NotificationPayload{}); err != nil {
		logger.Warn("follow notification", zap.String("actor", actorID), zap.String("target", targetID), zap.Error(err))
	}
	return nil
}

// Unfollow removes the edge. Unfollowing someone not followed is a no-op.
func (s *ProfileService) Unfollow(ctx context.Context, actorID, targetID string) error {
	deleted, err := s.follows.DeleteFollow(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if deleted {
		s.changed(ctx, actorID, targetID)
	}
	return nil
}

func (s *ProfileService) ListFollowers(ctx context.Context, id string) ([]models.Profile, error) {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profilesInOrder(ctx, profile.FollowerIDs)
}

func (s *ProfileService) ListFollowing(ctx context.Context, id string) ([]models.Profile, error) {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profilesInOrder(ctx, profile.FollowingIDs)
}

// ListContacts is the union of followers and following, each once, sorted by display name.
func (s *ProfileService) ListContacts(ctx context.Context, id string) ([]models.Profile, error) {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, list := range [][]string{profile.FollowerIDs, profile.FollowingIDs} {
		for _, other := range list {
			if !seen[other] {
				seen[other] = true
				ids = append(ids, other)
			}
		}
	}
	contacts, err := s.profilesInOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		return strings.ToLower(contacts[i].DisplayName) < strings.ToLower(contacts[j].DisplayName)
	})
	return contacts, nil
}

// ResolveCompact maps ids to their display snapshot. Unknown ids get a placeholder rather than an error.
func (s *ProfileService) ResolveCompact(ctx context.Context, ids []string) (map[string]models.ProfileCompact, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	rows, err := s.users.GetUsersByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.ProfileCompact, len(unique))
	for i := range rows {
		out[rows[i].ID] = rows[i].ToCompact()
	}
	for _, id := range unique {
		if _, ok := out[id]; !ok {
			out[id] = models.ProfileCompact{ID: id, DisplayName: models.DefaultDisplayName, Handle: id}
		}
	}
	return out, nil
}

func (s *ProfileService) profilesInOrder(ctx context.Context, ids []string) ([]models.Profile, error) {
	rows, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Profile, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *ProfileService) changed(ctx context.Context, ids ...string) {
	s.cache.Invalidate(ctx, ids...)
	topics := make([]string, len(ids))
	for i, id := range ids {
		topics[i] = realtime.ProfileTopic(id)
	}
	s.bus.Publish(topics...)
}
