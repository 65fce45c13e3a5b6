package repositories

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// AutoMigrate creates or updates the relational tables. When withContent is set the three
// content tables are created as well, each with its own recency and author indexes.
func AutoMigrate(db *gorm.DB, withContent bool) error {
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Follow{},
		&models.LikeMark{},
		&models.Comment{},
		&models.Notification{},
		&models.Message{},
		&models.DeviceToken{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	if !withContent {
		return nil
	}
	for _, kind := range models.AllKinds {
		table := kind.Collection()
		if err := db.Table(table).AutoMigrate(&models.ContentItem{}); err != nil {
			return errors.Wrapf(err, "auto migrate %s", table)
		}
		for _, stmt := range []string{
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at)", table, table),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_author_id ON %s (author_id)", table, table),
		} {
			if err := db.Exec(stmt).Error; err != nil {
				return errors.Wrapf(err, "index %s", table)
			}
		}
	}
	return nil
}
