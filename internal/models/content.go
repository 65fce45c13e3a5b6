package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ContentKind names one of the three parallel content collections
type ContentKind string

const (
	KindShare    ContentKind = "share"
	KindProject  ContentKind = "project"
	KindActivity ContentKind = "activity"
)

// AllKinds lists the collections in the order the feed merges them.
var AllKinds = []ContentKind{KindShare, KindProject, KindActivity}

// Counter columns; the names are shared by the SQL and Mongo stores.
const (
	CounterLikes    = "like_count"
	CounterComments = "comment_count"
)

// ExcerptLength bounds the text copied into notification payloads.
const ExcerptLength = 50

// ParseKind accepts both the singular and the collection form ("share", "shares").
func ParseKind(s string) (ContentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "share", "shares":
		return KindShare, true
	case "project", "projects":
		return KindProject, true
	case "activity", "activities":
		return KindActivity, true
	}
	return "", false
}

// Collection is the plural collection / table name.
func (k ContentKind) Collection() string {
	switch k {
	case KindActivity:
		return "activities"
	default:
		return string(k) + "s"
	}
}

func (k ContentKind) Valid() bool {
	return k == KindShare || k == KindProject || k == KindActivity
}

// ContentItem is a Share, Project or Activity. Exactly one of the body pointers is set, matching Kind.
// LikeCount and CommentCount are denormalized and only move through atomic counter updates.
// The same struct backs three tables, so secondary indexes are created per table by the migration
// rather than through struct tags.
type ContentItem struct {
	ID           string        `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Kind         ContentKind   `json:"kind" bson:"kind" gorm:"size:16"`
	AuthorID     string        `json:"author_id" bson:"author_id" gorm:"type:varchar(128)"`
	Title        string        `json:"title" bson:"title" gorm:"size:255"`
	Text         string        `json:"-" bson:"text" gorm:"type:text"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	LikeCount    int64         `json:"like_count" bson:"like_count"`
	CommentCount int64         `json:"comment_count" bson:"comment_count"`
	Share        *ShareBody    `json:"share,omitempty" bson:"share,omitempty" gorm:"serializer:json;type:text"`
	Project      *ProjectBody  `json:"project,omitempty" bson:"project,omitempty" gorm:"serializer:json;type:text"`
	Activity     *ActivityBody `json:"activity,omitempty" bson:"activity,omitempty" gorm:"serializer:json;type:text"`
}

// Prepare derives the denormalized Title and Text columns used by search and notifications.
func (c *ContentItem) Prepare() {
	switch c.Kind {
	case KindShare:
		if c.Share != nil {
			c.Text = c.Share.Text
			c.Title = Truncate(c.Share.Text, ExcerptLength)
		}
	case KindProject:
		if c.Project != nil {
			c.Title = c.Project.Title
			c.Text = c.Project.Description
		}
	case KindActivity:
		if c.Activity != nil {
			c.Title = c.Activity.Title
			c.Text = c.Activity.Description
		}
	}
}

// ShareBody is the payload of a short post
type ShareBody struct {
	Text         string   `json:"text" bson:"text" validate:"required,max=2000"`
	ImageURL     string   `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	Tags         []string `json:"tags,omitempty" bson:"tags,omitempty" validate:"omitempty,dive,max=50"`
	MentionedIDs []string `json:"mentioned_ids,omitempty" bson:"mentioned_ids,omitempty"`
}

// ProjectBody is the payload of a classroom project
type ProjectBody struct {
	Title          string   `json:"title" bson:"title" validate:"required,max=200"`
	Description    string   `json:"description" bson:"description" validate:"required,max=5000"`
	Goals          []string `json:"goals,omitempty" bson:"goals,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty" bson:"target_audience,omitempty"`
	Duration       string   `json:"duration,omitempty" bson:"duration,omitempty"`
	Materials      []string `json:"materials,omitempty" bson:"materials,omitempty"`
	Steps          []string `json:"steps,omitempty" bson:"steps,omitempty"`
	Evaluation     string   `json:"evaluation,omitempty" bson:"evaluation,omitempty"`
	ParticipantIDs []string `json:"participant_ids,omitempty" bson:"participant_ids,omitempty"`
	PosterURL      string   `json:"poster_url,omitempty" bson:"poster_url,omitempty" validate:"omitempty,url"`
}

// ActivityBody is the payload of a learning activity plan
type ActivityBody struct {
	Title            string   `json:"title" bson:"title" validate:"required,max=200"`
	Description      string   `json:"description" bson:"description" validate:"required,max=5000"`
	AgeGroup         string   `json:"age_group" bson:"age_group" validate:"required,max=50"`
	LearningOutcomes []string `json:"learning_outcomes,omitempty" bson:"learning_outcomes,omitempty"`
	Indicators       []string `json:"indicators,omitempty" bson:"indicators,omitempty"`
	Materials        []string `json:"materials,omitempty" bson:"materials,omitempty"`
	Process          string   `json:"process,omitempty" bson:"process,omitempty"`
	Adaptation       string   `json:"adaptation,omitempty" bson:"adaptation,omitempty"`
	ImageURL         string   `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Excerpt is Truncate with a trailing ellipsis when anything was cut.
func Excerpt(s string, n int) string {
	if t := Truncate(s, n); t != s {
		return t + "..."
	}
	return s
}
