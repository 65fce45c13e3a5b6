package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// LikeRepository defines the data operations on like marks
type LikeRepository interface {
	// CreateLike inserts the mark; created is false when the identity already likes the item.
	CreateLike(ctx context.Context, kind models.ContentKind, itemID, identityID string) (created bool, err error)
	// DeleteLike removes the mark; deleted is false when there was none.
	DeleteLike(ctx context.Context, kind models.ContentKind, itemID, identityID string) (deleted bool, err error)
	HasLiked(ctx context.Context, kind models.ContentKind, itemID, identityID string) (bool, error)
	CountLikes(ctx context.Context, kind models.ContentKind, itemID string) (int64, error)
	DeleteLikesByItem(ctx context.Context, kind models.ContentKind, itemID string) error
	// LikedItemIDs returns which of itemIDs the identity likes.
	LikedItemIDs(ctx context.Context, kind models.ContentKind, itemIDs []string, identityID string) (map[string]bool, error)
}

// SQLLikeRepository implements LikeRepository with gorm
type SQLLikeRepository struct {
	db *gorm.DB
}

// NewSQLLikeRepository creates a new SQLLikeRepository
func NewSQLLikeRepository(db *gorm.DB) *SQLLikeRepository {
	return &SQLLikeRepository{db: db}
}

// CreateLike relies on the unique (kind, item, identity) index, so two concurrent likes create one mark
func (r *SQLLikeRepository) CreateLike(ctx context.Context, kind models.ContentKind, itemID, identityID string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.LikeMark{ItemKind: kind, ItemID: itemID, IdentityID: identityID})
	if res.Error != nil {
		return false, classify("create like", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SQLLikeRepository) DeleteLike(ctx context.Context, kind models.ContentKind, itemID, identityID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("item_kind = ? AND item_id = ? AND identity_id = ?", kind, itemID, identityID).
		Delete(&models.LikeMark{})
	if res.Error != nil {
		return false, classify("delete like", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SQLLikeRepository) HasLiked(ctx context.Context, kind models.ContentKind, itemID, identityID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LikeMark{}).
		Where("item_kind = ? AND item_id = ? AND identity_id = ?", kind, itemID, identityID).
		Count(&count).Error; err != nil {
		return false, classify("has liked", err)
	}
	return count > 0, nil
}

func (r *SQLLikeRepository) CountLikes(ctx context.Context, kind models.ContentKind, itemID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LikeMark{}).
		Where("item_kind = ? AND item_id = ?", kind, itemID).
		Count(&count).Error; err != nil {
		return 0, classify("count likes", err)
	}
	return count, nil
}

func (r *SQLLikeRepository) DeleteLikesByItem(ctx context.Context, kind models.ContentKind, itemID string) error {
	err := r.db.WithContext(ctx).Where("item_kind = ? AND item_id = ?", kind, itemID).Delete(&models.LikeMark{}).Error
	return classify("delete likes", err)
}

func (r *SQLLikeRepository) LikedItemIDs(ctx context.Context, kind models.ContentKind, itemIDs []string, identityID string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if len(itemIDs) == 0 {
		return liked, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.LikeMark{}).
		Where("item_kind = ? AND identity_id = ? AND item_id IN ?", kind, identityID, itemIDs).
		Pluck("item_id", &ids).Error; err != nil {
		return nil, classify("liked items", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
