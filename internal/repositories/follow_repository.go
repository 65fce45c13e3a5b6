package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// FollowRepository defines the data operations on the follow graph
type FollowRepository interface {
	// CreateFollow inserts the edge; created is false when it already existed.
	CreateFollow(ctx context.Context, followerID, followingID string) (created bool, err error)
	// DeleteFollow removes the edge; deleted is false when there was none.
	DeleteFollow(ctx context.Context, followerID, followingID string) (deleted bool, err error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// SQLFollowRepository implements FollowRepository with gorm
type SQLFollowRepository struct {
	db *gorm.DB
}

// NewSQLFollowRepository creates a new SQLFollowRepository
func NewSQLFollowRepository(db *gorm.DB) *SQLFollowRepository {
	return &SQLFollowRepository{db: db}
}

// CreateFollow checks that both identities exist and inserts the edge in one transaction
func (r *SQLFollowRepository) CreateFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Profile{}).Where("id IN ?", []string{followerID, followingID}).Count(&count).Error; err != nil {
			return err
		}
		if count != 2 {
			return ErrNotFound
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, classify("create follow", err)
	}
	return created, nil
}

func (r *SQLFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, classify("delete follow", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SQLFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, classify("is following", err)
	}
	return count > 0, nil
}

func (r *SQLFollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).Order("created_at").Pluck("follower_id", &ids).Error
	return ids, classify("get follower ids", err)
}

func (r *SQLFollowRepository) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).Order("created_at").Pluck("following_id", &ids).Error
	return ids, classify("get following ids", err)
}
