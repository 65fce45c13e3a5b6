package repositories

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// MongoContentRepository implements ContentRepository with one MongoDB collection per kind
type MongoContentRepository struct {
	db *mongo.Database
}

// NewMongoContentRepository creates a new MongoContentRepository
func NewMongoContentRepository(db *mongo.Database) *MongoContentRepository {
	return &MongoContentRepository{db: db}
}

func (r *MongoContentRepository) collection(kind models.ContentKind) *mongo.Collection {
	return r.db.Collection(kind.Collection())
}

// EnsureIndexes creates the recency and author indexes the feed and profile pages query by
func (r *MongoContentRepository) EnsureIndexes(ctx context.Context) error {
	for _, kind := range models.AllKinds {
		_, err := r.collection(kind).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		})
		if err != nil {
			return classify("ensure indexes "+kind.Collection(), err)
		}
	}
	return nil
}

func (r *MongoContentRepository) CreateItem(ctx context.Context, item *models.ContentItem) error {
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection(item.Kind).InsertOne(ctx, item)
	return classify("create "+string(item.Kind), err)
}

func (r *MongoContentRepository) GetItem(ctx context.Context, kind models.ContentKind, id string) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := r.collection(kind).FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, classify("get "+string(kind), err)
	}
	return &item, nil
}

func (r *MongoContentRepository) find(ctx context.Context, kind models.ContentKind, filter bson.M, limit int) ([]models.ContentItem, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	cursor, err := r.collection(kind).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, classify("find "+kind.Collection(), err)
	}
	defer cursor.Close(ctx)

	items := []models.ContentItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, classify("decode "+kind.Collection(), err)
	}
	return items, nil
}

func (r *MongoContentRepository) RecentItems(ctx context.Context, kind models.ContentKind, limit int) ([]models.ContentItem, error) {
	return r.find(ctx, kind, bson.M{}, limit)
}

func (r *MongoContentRepository) ItemsByAuthor(ctx context.Context, kind models.ContentKind, authorID string, limit int) ([]models.ContentItem, error) {
	return r.find(ctx, kind, bson.M{"author_id": authorID}, limit)
}

func (r *MongoContentRepository) SearchItems(ctx context.Context, kind models.ContentKind, query string, limit int) ([]models.ContentItem, error) {
	filter := bson.M{searchField(kind): bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
	return r.find(ctx, kind, filter, limit)
}

func (r *MongoContentRepository) DeleteItem(ctx context.Context, kind models.ContentKind, id string) error {
	res, err := r.collection(kind).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classify("delete "+string(kind), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoContentRepository) AdjustCounter(ctx context.Context, kind models.ContentKind, id, counter string, delta int64) error {
	if !validCounter(counter) {
		return errors.Wrap(errUnknownCounter, counter)
	}
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter[counter] = bson.M{"$gte": -delta}
	}
	res, err := r.collection(kind).UpdateOne(ctx, filter, bson.M{"$inc": bson.M{counter: delta}})
	if err != nil {
		return classify("adjust "+counter, err)
	}
	if res.MatchedCount == 0 {
		// Either the item is gone or the counter is already at its floor.
		if _, err := r.GetItem(ctx, kind, id); err != nil {
			return err
		}
		return errors.Wrap(ErrCounterFloor, counter)
	}
	return nil
}

func (r *MongoContentRepository) SetCounters(ctx context.Context, kind models.ContentKind, id string, likes, comments int64) error {
	res, err := r.collection(kind).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		models.CounterLikes:    likes,
		models.CounterComments: comments,
	}})
	if err != nil {
		return classify("set counters", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoContentRepository) ListItemIDs(ctx context.Context, kind models.ContentKind) ([]string, error) {
	cursor, err := r.collection(kind).Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, classify("list "+kind.Collection(), err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, classify("decode "+kind.Collection(), err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (r *MongoContentRepository) CountItems(ctx context.Context, kind models.ContentKind) (int64, error) {
	count, err := r.collection(kind).CountDocuments(ctx, bson.M{})
	return count, classify("count "+kind.Collection(), err)
}
