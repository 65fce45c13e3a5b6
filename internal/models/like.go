package models

import "time"

// LikeMark records that IdentityID likes an item. At most one row exists per (kind, item, identity).
type LikeMark struct {
	ID         uint        `json:"-" gorm:"primaryKey"`
	ItemKind   ContentKind `json:"item_kind" gorm:"size:16;uniqueIndex:idx_like_item_identity"`
	ItemID     string      `json:"item_id" gorm:"type:varchar(36);index;uniqueIndex:idx_like_item_identity"`
	IdentityID string      `json:"identity_id" gorm:"type:varchar(128);index;uniqueIndex:idx_like_item_identity"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (LikeMark) TableName() string { return "likes" }
