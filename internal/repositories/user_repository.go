package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// UserRepository defines the data operations on profile records
type UserRepository interface {
	CreateUser(ctx context.Context, profile *models.Profile) error
	// GetUserByID returns the profile with its follower and following sets hydrated.
	GetUserByID(ctx context.Context, id string) (*models.Profile, error)
	// GetUsersByIDs returns the profile rows only; follow sets are left empty.
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.Profile, error)
	// SaveUser overwrites every column of the record. Follow sets are not part of the record.
	SaveUser(ctx context.Context, profile *models.Profile) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.Profile, error)
	CountUsers(ctx context.Context) (int64, error)
}

// SQLUserRepository implements UserRepository with gorm (Postgres or SQLite)
type SQLUserRepository struct {
	db *gorm.DB
}

// NewSQLUserRepository creates a new SQLUserRepository
func NewSQLUserRepository(db *gorm.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

func (r *SQLUserRepository) CreateUser(ctx context.Context, profile *models.Profile) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(profile)
	if res.Error != nil {
		return classify("create user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *SQLUserRepository) GetUserByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, classify("get user", err)
	}
	if err := hydrateFollows(ctx, r.db, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *SQLUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	var users []models.Profile
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, classify("get users", err)
	}
	return users, nil
}

func (r *SQLUserRepository) SaveUser(ctx context.Context, profile *models.Profile) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", profile.ID).
		Select("*").Omit("id", "created_at").Updates(profile)
	if res.Error != nil {
		return classify("save user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers matches the display name or handle, case-insensitively
func (r *SQLUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	var users []models.Profile
	pattern := containsPattern(query)
	err := r.db.WithContext(ctx).
		Where(`LOWER(display_name) LIKE ? ESCAPE '\' OR LOWER(handle) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("display_name").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, classify("search users", err)
	}
	return users, nil
}

func (r *SQLUserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&count).Error; err != nil {
		return 0, classify("count users", err)
	}
	return count, nil
}

func hydrateFollows(ctx context.Context, db *gorm.DB, profile *models.Profile) error {
	followers := []string{}
	following := []string{}
	if err := db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", profile.ID).Order("created_at").
		Pluck("follower_id", &followers).Error; err != nil {
		return classify("get follower ids", err)
	}
	if err := db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", profile.ID).Order("created_at").
		Pluck("following_id", &following).Error; err != nil {
		return classify("get following ids", err)
	}
	profile.FollowerIDs = followers
	profile.FollowingIDs = following
	return nil
}
