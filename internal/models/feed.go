package models

// FeedFilter restricts the feed to one collection
type FeedFilter string

const (
	FeedAll        FeedFilter = "all"
	FeedShares     FeedFilter = "shares"
	FeedProjects   FeedFilter = "projects"
	FeedActivities FeedFilter = "activities"
)

// ParseFeedFilter maps a query value to a filter; empty means all.
func ParseFeedFilter(s string) (FeedFilter, bool) {
	switch FeedFilter(s) {
	case "", FeedAll:
		return FeedAll, true
	case FeedShares, FeedProjects, FeedActivities:
		return FeedFilter(s), true
	}
	return "", false
}

// Includes reports whether items of kind k pass the filter.
func (f FeedFilter) Includes(k ContentKind) bool {
	switch f {
	case FeedShares:
		return k == KindShare
	case FeedProjects:
		return k == KindProject
	case FeedActivities:
		return k == KindActivity
	default:
		return true
	}
}

// FeedItem is a content item enriched for display
type FeedItem struct {
	ContentItem
	Author  ProfileCompact `json:"author"`
	IsLiked bool           `json:"is_liked"`
}

// SearchResults groups the matches of a free-text search
type SearchResults struct {
	Users      []ProfileCompact `json:"users"`
	Projects   []ContentItem    `json:"projects"`
	Shares     []ContentItem    `json:"shares"`
	Activities []ContentItem    `json:"activities"`
}
