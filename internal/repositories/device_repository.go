package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// DeviceRepository defines the data operations on push tokens
type DeviceRepository interface {
	// SaveDevice binds token to identityID, moving it if another identity held it.
	SaveDevice(ctx context.Context, identityID, token string) error
	DeleteDevice(ctx context.Context, token string) error
	GetTokens(ctx context.Context, identityID string) ([]string, error)
}

// SQLDeviceRepository implements DeviceRepository with gorm
type SQLDeviceRepository struct {
	db *gorm.DB
}

// NewSQLDeviceRepository creates a new SQLDeviceRepository
func NewSQLDeviceRepository(db *gorm.DB) *SQLDeviceRepository {
	return &SQLDeviceRepository{db: db}
}

func (r *SQLDeviceRepository) SaveDevice(ctx context.Context, identityID, token string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"identity_id"}),
	}).Create(&models.DeviceToken{Token: token, IdentityID: identityID}).Error
	return classify("save device", err)
}

func (r *SQLDeviceRepository) DeleteDevice(ctx context.Context, token string) error {
	err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.DeviceToken{}).Error
	return classify("delete device", err)
}

func (r *SQLDeviceRepository) GetTokens(ctx context.Context, identityID string) ([]string, error) {
	tokens := []string{}
	err := r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("identity_id = ?", identityID).Pluck("token", &tokens).Error
	return tokens, classify("get devices", err)
}
