package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// MessageRepository defines the data operations on the direct message log
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	// GetThread returns every message exchanged between a and b in either direction, oldest first.
	GetThread(ctx context.Context, a, b string) ([]models.Message, error)
	// MarkThreadRead flips unread messages sent by other to viewer. It returns how many changed.
	MarkThreadRead(ctx context.Context, viewerID, otherID string) (int64, error)
	GetUnreadCount(ctx context.Context, receiverID string) (int64, error)
	CountMessages(ctx context.Context) (int64, error)
}

// SQLMessageRepository implements MessageRepository with gorm
type SQLMessageRepository struct {
	db *gorm.DB
}

// NewSQLMessageRepository creates a new SQLMessageRepository
func NewSQLMessageRepository(db *gorm.DB) *SQLMessageRepository {
	return &SQLMessageRepository{db: db}
}

func (r *SQLMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	return classify("create message", r.db.WithContext(ctx).Create(message).Error)
}

func (r *SQLMessageRepository) GetThread(ctx context.Context, a, b string) ([]models.Message, error) {
	messages := []models.Message{}
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("sent_at_millis ASC, id ASC").
		Find(&messages).Error
	return messages, classify("get thread", err)
}

func (r *SQLMessageRepository) MarkThreadRead(ctx context.Context, viewerID, otherID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", otherID, viewerID, false).
		Update("read", true)
	return res.RowsAffected, classify("mark thread read", res.Error)
}

func (r *SQLMessageRepository) GetUnreadCount(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", receiverID, false).Count(&count).Error
	return count, classify("unread messages", err)
}

func (r *SQLMessageRepository) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Count(&count).Error
	return count, classify("count messages", err)
}
