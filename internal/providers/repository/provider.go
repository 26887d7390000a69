package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	providererrors "tourdesk/internal/providers/errors"
	"tourdesk/pkg/config"
	mongotx "tourdesk/pkg/db/mongo"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Providers"
)

type ProviderRepository interface {
	Create(ctx context.Context, provider *model.Provider) error
	FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Provider, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, provider *model.Provider) (*mongo.UpdateResult, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Stats(ctx context.Context) (*model.ProviderStats, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoProviderRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoProviderRepository(cfg *config.Config) ProviderRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoProviderRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoProviderRepository) Create(ctx context.Context, provider *model.Provider) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, provider)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		provider.ID = oid.Hex()
	}
	return nil
}

func (r *mongoProviderRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Provider, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", providererrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	if !includeDeleted {
		filter["meta.is_deleted"] = false
	}

	var provider model.Provider
	if err := r.collection.FindOne(ctx, filter).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, providererrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}

	return &provider, nil
}

func (r *mongoProviderRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"meta.is_deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []*model.Provider
	if err := cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}

	return providers, nil
}

func (r *mongoProviderRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"meta.is_deleted": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count providers: %w", err)
	}
	return count, nil
}

func (r *mongoProviderRepository) Update(ctx context.Context, id string, provider *model.Provider) (*mongo.UpdateResult, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", providererrors.ErrInvalidID, id)
	}

	// _id is immutable; keep it out of the replacement document.
	replacement := *provider
	replacement.ID = ""

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objectID}, &replacement)
	if err != nil {
		return nil, fmt.Errorf("failed to update provider: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, providererrors.ErrNotFound
	}

	return result, nil
}

// ExistsByName reports whether a non-deleted provider already uses the
// name, case-insensitively, excluding excludeID when set.
func (r *mongoProviderRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"name": primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(name) + "$",
			Options: "i",
		},
		"meta.is_deleted": false,
	}

	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return false, fmt.Errorf("%w: %s", providererrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check provider name: %w", err)
	}

	return count > 0, nil
}

func (r *mongoProviderRepository) Stats(ctx context.Context) (*model.ProviderStats, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	stats := &model.ProviderStats{
		ByType:   make(map[string]int64),
		ByRating: make(map[string]int64),
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count providers: %w", err)
	}
	stats.Total = total

	deleted, err := r.collection.CountDocuments(ctx, bson.M{"meta.is_deleted": true})
	if err != nil {
		return nil, fmt.Errorf("failed to count deleted providers: %w", err)
	}
	stats.Deleted = deleted

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	recent, err := r.collection.CountDocuments(ctx, bson.M{
		"meta.is_deleted": false,
		"meta.created_at": bson.M{"$gte": weekAgo},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count recent providers: %w", err)
	}
	stats.CreatedLast7Days = recent

	byType, err := r.groupCounts(ctx, "$type")
	if err != nil {
		return nil, err
	}
	stats.ByType = byType

	if err := r.ratingStats(ctx, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *mongoProviderRepository) groupCounts(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"meta.is_deleted": false}}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate providers by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode provider aggregation: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Count
	}
	return out, nil
}

func (r *mongoProviderRepository) ratingStats(ctx context.Context, stats *model.ProviderStats) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"meta.is_deleted": false,
			"rating.count":    bson.M{"$gt": 0},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"$floor": "$rating.average"},
			"count":   bson.M{"$sum": 1},
			"average": bson.M{"$avg": "$rating.average"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to aggregate provider ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Floor   float64 `bson:"_id"`
		Count   int64   `bson:"count"`
		Average float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return fmt.Errorf("failed to decode provider rating aggregation: %w", err)
	}

	var rated int64
	var weighted float64
	for _, row := range rows {
		stats.ByRating[fmt.Sprintf("%.0f", row.Floor)] = row.Count
		rated += row.Count
		weighted += row.Average * float64(row.Count)
	}
	if rated > 0 {
		stats.AverageRating = weighted / float64(rated)
	}

	return nil
}

func (r *mongoProviderRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
