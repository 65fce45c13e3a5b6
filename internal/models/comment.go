package models

import "time"

// Comment is an append-only child of a content item
type Comment struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ItemKind  ContentKind `json:"item_kind" gorm:"size:16;index:idx_comment_item"`
	ItemID    string      `json:"item_id" gorm:"type:varchar(36);index:idx_comment_item"`
	AuthorID  string      `json:"author_id" gorm:"type:varchar(128);index"`
	Body      string      `json:"body" gorm:"type:text"`
	CreatedAt time.Time   `json:"created_at" gorm:"index"`
}

// CommentView is a comment resolved against the commenter's profile
type CommentView struct {
	Comment
	Author ProfileCompact `json:"author"`
}

// CreateCommentRequest defines the request body for commenting on an item
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,max=1000"`
}
