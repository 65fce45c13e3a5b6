package models

import "time"

// Follow is one edge of the follow graph: FollowerID follows FollowingID.
// A single row backs both FollowerID's following set and FollowingID's follower set.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  string    `json:"follower_id" gorm:"type:varchar(128);index;uniqueIndex:idx_follower_following"`
	FollowingID string    `json:"following_id" gorm:"type:varchar(128);index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}
