package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// NotificationRepository defines the data operations on notification lists
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	// GetByRecipientID returns the recipient's notifications, newest first.
	GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int64, error)
	// MarkAsRead flips the listed notifications, or all of them when ids is empty. It returns how many changed.
	MarkAsRead(ctx context.Context, recipientID string, ids []string) (int64, error)
	DeleteNotification(ctx context.Context, recipientID, id string) error
	DeleteAll(ctx context.Context, recipientID string) (int64, error)
	CountNotifications(ctx context.Context) (int64, error)
}

// SQLNotificationRepository implements NotificationRepository with gorm
type SQLNotificationRepository struct {
	db *gorm.DB
}

// NewSQLNotificationRepository creates a new SQLNotificationRepository
func NewSQLNotificationRepository(db *gorm.DB) *SQLNotificationRepository {
	return &SQLNotificationRepository{db: db}
}

func (r *SQLNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	return classify("create notification", r.db.WithContext(ctx).Create(notification).Error)
}

func (r *SQLNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	notifications := []models.Notification{}
	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&notifications).Error
	return notifications, classify("get notifications", err)
}

func (r *SQLNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).Count(&count).Error
	return count, classify("unread notifications", err)
}

func (r *SQLNotificationRepository) MarkAsRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Update("read", true)
	return res.RowsAffected, classify("mark notifications read", res.Error)
}

func (r *SQLNotificationRepository) DeleteNotification(ctx context.Context, recipientID, id string) error {
	res := r.db.WithContext(ctx).Where("recipient_id = ? AND id = ?", recipientID, id).Delete(&models.Notification{})
	if res.Error != nil {
		return classify("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLNotificationRepository) DeleteAll(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).Delete(&models.Notification{})
	return res.RowsAffected, classify("clear notifications", res.Error)
}

func (r *SQLNotificationRepository) CountNotifications(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Count(&count).Error
	return count, classify("count notifications", err)
}
