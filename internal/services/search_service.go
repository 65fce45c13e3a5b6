package services

import (
	"context"
	"strings"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
)

const searchLimit = 20

// SearchService looks up people and content by free text
type SearchService struct {
	users repositories.UserRepository
	items repositories.ContentRepository
}

// NewSearchService creates a new SearchService
func NewSearchService(users repositories.UserRepository, items repositories.ContentRepository) *SearchService {
	return &SearchService{users: users, items: items}
}

// Search matches display names, project and activity titles and share text, case-insensitively.
func (s *SearchService) Search(ctx context.Context, term string) (*models.SearchResults, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyBody
	}
	users, err := s.users.SearchUsers(ctx, term, searchLimit)
	if err != nil {
		return nil, err
	}
	projects, err := s.items.SearchItems(ctx, models.KindProject, term, searchLimit)
	if err != nil {
		return nil, err
	}
	shares, err := s.items.SearchItems(ctx, models.KindShare, term, searchLimit)
	if err != nil {
		return nil, err
	}
	activities, err := s.items.SearchItems(ctx, models.KindActivity, term, searchLimit)
	if err != nil {
		return nil, err
	}
	results := &models.SearchResults{
		Users:      make([]models.ProfileCompact, len(users)),
		Projects:   projects,
		Shares:     shares,
		Activities: activities,
	}
	for i := range users {
		results.Users[i] = users[i].ToCompact()
	}
	return results, nil
}
