package models

import "time"

// NotificationKind is the reason a notification was fanned out
type NotificationKind string

const (
	NotificationFollow  NotificationKind = "follow"
	NotificationMessage NotificationKind = "message"
	NotificationMention NotificationKind = "mention"
	NotificationComment NotificationKind = "comment"
	NotificationLike    NotificationKind = "like"
)

// Notification is one entry of a recipient's notification list. Only Read ever changes after creation.
type Notification struct {
	ID                string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RecipientID       string           `json:"recipient_id" gorm:"type:varchar(128);index"`
	Kind              NotificationKind `json:"kind" gorm:"size:16;index"`
	SenderID          string           `json:"sender_id" gorm:"type:varchar(128)"`
	SenderDisplayName string           `json:"sender_display_name" gorm:"size:100"`
	ItemKind          ContentKind      `json:"item_kind,omitempty" gorm:"size:16"`
	ItemID            string           `json:"item_id,omitempty" gorm:"type:varchar(36)"`
	ItemTitle         string           `json:"item_title,omitempty" gorm:"size:255"`
	Excerpt           string           `json:"excerpt,omitempty" gorm:"size:255"`
	Read              bool             `json:"read" gorm:"default:false;index"`
	CreatedAt         time.Time        `json:"created_at" gorm:"index"`
}

// NotificationPayload carries the kind-specific fields of a notification
type NotificationPayload struct {
	ItemKind  ContentKind
	ItemID    string
	ItemTitle string
	Excerpt   string
}

// MarkReadRequest selects which notifications to flip; no ids means all of them
type MarkReadRequest struct {
	IDs []string `json:"ids,omitempty"`
}
