package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// ContentRepository defines the data operations on the three content collections
type ContentRepository interface {
	// CreateItem stores the item, assigning an id when it has none.
	CreateItem(ctx context.Context, item *models.ContentItem) error
	GetItem(ctx context.Context, kind models.ContentKind, id string) (*models.ContentItem, error)
	// RecentItems returns the last limit items of the collection, newest first.
	RecentItems(ctx context.Context, kind models.ContentKind, limit int) ([]models.ContentItem, error)
	ItemsByAuthor(ctx context.Context, kind models.ContentKind, authorID string, limit int) ([]models.ContentItem, error)
	// SearchItems matches the title of projects and activities and the text of shares.
	SearchItems(ctx context.Context, kind models.ContentKind, query string, limit int) ([]models.ContentItem, error)
	DeleteItem(ctx context.Context, kind models.ContentKind, id string) error
	// AdjustCounter atomically adds delta to a counter column. A decrement never takes it below
	// zero; a refused one returns ErrCounterFloor.
	AdjustCounter(ctx context.Context, kind models.ContentKind, id, counter string, delta int64) error
	SetCounters(ctx context.Context, kind models.ContentKind, id string, likes, comments int64) error
	ListItemIDs(ctx context.Context, kind models.ContentKind) ([]string, error)
	CountItems(ctx context.Context, kind models.ContentKind) (int64, error)
}

var errUnknownCounter = errors.New("unknown counter")

func validCounter(counter string) bool {
	return counter == models.CounterLikes || counter == models.CounterComments
}

// containsPattern builds a case-folded LIKE pattern matching query anywhere. Wildcards in
// the query are escaped so they match literally; use it with ESCAPE '\'.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func searchField(kind models.ContentKind) string {
	if kind == models.KindShare {
		return "text"
	}
	return "title"
}

// SQLContentRepository implements ContentRepository with one gorm table per collection
type SQLContentRepository struct {
	db *gorm.DB
}

// NewSQLContentRepository creates a new SQLContentRepository
func NewSQLContentRepository(db *gorm.DB) *SQLContentRepository {
	return &SQLContentRepository{db: db}
}

func (r *SQLContentRepository) table(ctx context.Context, kind models.ContentKind) *gorm.DB {
	return r.db.WithContext(ctx).Table(kind.Collection())
}

func (r *SQLContentRepository) CreateItem(ctx context.Context, item *models.ContentItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return classify("create "+string(item.Kind), r.table(ctx, item.Kind).Create(item).Error)
}

func (r *SQLContentRepository) GetItem(ctx context.Context, kind models.ContentKind, id string) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := r.table(ctx, kind).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, classify("get "+string(kind), err)
	}
	return &item, nil
}

func (r *SQLContentRepository) RecentItems(ctx context.Context, kind models.ContentKind, limit int) ([]models.ContentItem, error) {
	items := []models.ContentItem{}
	err := r.table(ctx, kind).Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, classify("recent "+kind.Collection(), err)
}

func (r *SQLContentRepository) ItemsByAuthor(ctx context.Context, kind models.ContentKind, authorID string, limit int) ([]models.ContentItem, error) {
	items := []models.ContentItem{}
	err := r.table(ctx, kind).Where("author_id = ?", authorID).Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, classify("author "+kind.Collection(), err)
}

func (r *SQLContentRepository) SearchItems(ctx context.Context, kind models.ContentKind, query string, limit int) ([]models.ContentItem, error) {
	items := []models.ContentItem{}
	err := r.table(ctx, kind).
		Where("LOWER("+searchField(kind)+") LIKE ? ESCAPE '\\'", containsPattern(query)).
		Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, classify("search "+kind.Collection(), err)
}

func (r *SQLContentRepository) DeleteItem(ctx context.Context, kind models.ContentKind, id string) error {
	res := r.table(ctx, kind).Where("id = ?", id).Delete(&models.ContentItem{})
	if res.Error != nil {
		return classify("delete "+string(kind), res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLContentRepository) AdjustCounter(ctx context.Context, kind models.ContentKind, id, counter string, delta int64) error {
	if !validCounter(counter) {
		return errors.Wrap(errUnknownCounter, counter)
	}
	q := r.table(ctx, kind).Where("id = ?", id)
	if delta < 0 {
		q = q.Where(counter+" >= ?", -delta)
	}
	res := q.UpdateColumn(counter, gorm.Expr(counter+" + ?", delta))
	if res.Error != nil {
		return classify("adjust "+counter, res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the item is gone or the counter is already at its floor.
		if _, err := r.GetItem(ctx, kind, id); err != nil {
			return err
		}
		return errors.Wrap(ErrCounterFloor, counter)
	}
	return nil
}

func (r *SQLContentRepository) SetCounters(ctx context.Context, kind models.ContentKind, id string, likes, comments int64) error {
	res := r.table(ctx, kind).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		models.CounterLikes:    likes,
		models.CounterComments: comments,
	})
	if res.Error != nil {
		return classify("set counters", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetItem(ctx, kind, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLContentRepository) ListItemIDs(ctx context.Context, kind models.ContentKind) ([]string, error) {
	ids := []string{}
	err := r.table(ctx, kind).Order("created_at").Pluck("id", &ids).Error
	return ids, classify("list "+kind.Collection(), err)
}

func (r *SQLContentRepository) CountItems(ctx context.Context, kind models.ContentKind) (int64, error) {
	var count int64
	err := r.table(ctx, kind).Count(&count).Error
	return count, classify("count "+kind.Collection(), err)
}
