package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// CommentRepository defines the data operations on comments
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	// GetCommentsByItem returns the item's comments, oldest first.
	GetCommentsByItem(ctx context.Context, kind models.ContentKind, itemID string) ([]models.Comment, error)
	CountComments(ctx context.Context, kind models.ContentKind, itemID string) (int64, error)
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByItem(ctx context.Context, kind models.ContentKind, itemID string) error
}

// SQLCommentRepository implements CommentRepository with gorm
type SQLCommentRepository struct {
	db *gorm.DB
}

// NewSQLCommentRepository creates a new SQLCommentRepository
func NewSQLCommentRepository(db *gorm.DB) *SQLCommentRepository {
	return &SQLCommentRepository{db: db}
}

func (r *SQLCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	return classify("create comment", r.db.WithContext(ctx).Create(comment).Error)
}

func (r *SQLCommentRepository) GetCommentsByItem(ctx context.Context, kind models.ContentKind, itemID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).
		Where("item_kind = ? AND item_id = ?", kind, itemID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, classify("get comments", err)
}

func (r *SQLCommentRepository) CountComments(ctx context.Context, kind models.ContentKind, itemID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("item_kind = ? AND item_id = ?", kind, itemID).Count(&count).Error
	return count, classify("count comments", err)
}

// DeleteComment removes one comment. Used to undo an append whose counter update failed.
func (r *SQLCommentRepository) DeleteComment(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return classify("delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLCommentRepository) DeleteCommentsByItem(ctx context.Context, kind models.ContentKind, itemID string) error {
	err := r.db.WithContext(ctx).Where("item_kind = ? AND item_id = ?", kind, itemID).Delete(&models.Comment{}).Error
	return classify("delete comments", err)
}
