package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	journeyerrors "tourdesk/internal/journeys/errors"
	"tourdesk/pkg/config"
	mongotx "tourdesk/pkg/db/mongo"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Journeys"
)

type JourneyRepository interface {
	Create(ctx context.Context, journey *model.Journey) error
	FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Journey, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, journey *model.Journey) (*mongo.UpdateResult, error)
	CountActiveByProvider(ctx context.Context, providerID string) (int64, error)
	FindGuideConflicts(ctx context.Context, guideID string, date time.Time, excludeID string) ([]*model.Journey, error)
	Stats(ctx context.Context) (*model.JourneyStats, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoJourneyRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoJourneyRepository(cfg *config.Config) JourneyRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoJourneyRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoJourneyRepository) Create(ctx context.Context, journey *model.Journey) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, journey)
	if err != nil {
		return fmt.Errorf("failed to create journey: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		journey.ID = oid.Hex()
	}
	return nil
}

func (r *mongoJourneyRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", journeyerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	if !includeDeleted {
		filter["meta.is_deleted"] = false
	}

	var journey model.Journey
	if err := r.collection.FindOne(ctx, filter).Decode(&journey); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journeyerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journey: %w", err)
	}

	return &journey, nil
}

func (r *mongoJourneyRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Journey, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "schedule.start_date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"meta.is_deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list journeys: %w", err)
	}
	defer cursor.Close(ctx)

	var journeys []*model.Journey
	if err := cursor.All(ctx, &journeys); err != nil {
		return nil, fmt.Errorf("failed to decode journeys: %w", err)
	}

	return journeys, nil
}

func (r *mongoJourneyRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"meta.is_deleted": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count journeys: %w", err)
	}
	return count, nil
}

func (r *mongoJourneyRepository) Update(ctx context.Context, id string, journey *model.Journey) (*mongo.UpdateResult, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", journeyerrors.ErrInvalidID, id)
	}

	replacement := *journey
	replacement.ID = ""

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objectID}, &replacement)
	if err != nil {
		return nil, fmt.Errorf("failed to update journey: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, journeyerrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoJourneyRepository) CountActiveByProvider(ctx context.Context, providerID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"provider_id":     providerID,
		"status":          model.JourneyStatusActive,
		"meta.is_deleted": false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active journeys for provider: %w", err)
	}
	return count, nil
}

// FindGuideConflicts returns non-deleted journeys assigned to the guide
// whose schedule starts on the same UTC calendar day as date, excluding
// excludeID (a journey never conflicts with its own reassignment).
func (r *mongoJourneyRepository) FindGuideConflicts(ctx context.Context, guideID string, date time.Time, excludeID string) ([]*model.Journey, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	dayStart := date.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	filter := bson.M{
		"guide_id":        guideID,
		"meta.is_deleted": false,
		"schedule.start_date": bson.M{
			"$gte": dayStart,
			"$lt":  dayEnd,
		},
	}

	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", journeyerrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to scan guide conflicts: %w", err)
	}
	defer cursor.Close(ctx)

	var journeys []*model.Journey
	if err := cursor.All(ctx, &journeys); err != nil {
		return nil, fmt.Errorf("failed to decode guide conflicts: %w", err)
	}

	return journeys, nil
}

func (r *mongoJourneyRepository) Stats(ctx context.Context) (*model.JourneyStats, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	stats := &model.JourneyStats{
		ByStatus:   make(map[string]int64),
		ByCategory: make(map[string]int64),
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count journeys: %w", err)
	}
	stats.Total = total

	deleted, err := r.collection.CountDocuments(ctx, bson.M{"meta.is_deleted": true})
	if err != nil {
		return nil, fmt.Errorf("failed to count deleted journeys: %w", err)
	}
	stats.Deleted = deleted

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	recent, err := r.collection.CountDocuments(ctx, bson.M{
		"meta.is_deleted": false,
		"meta.created_at": bson.M{"$gte": weekAgo},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count recent journeys: %w", err)
	}
	stats.CreatedLast7Days = recent

	byStatus, err := r.groupCounts(ctx, "$status")
	if err != nil {
		return nil, err
	}
	stats.ByStatus = byStatus

	byCategory, err := r.groupCounts(ctx, "$category")
	if err != nil {
		return nil, err
	}
	stats.ByCategory = byCategory

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"meta.is_deleted": false}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$pricing.base_price"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sum journey prices: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode journey price sum: %w", err)
	}
	if len(rows) > 0 {
		stats.TotalBasePrice = rows[0].Total
	}

	return stats, nil
}

func (r *mongoJourneyRepository) groupCounts(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"meta.is_deleted": false}}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate journeys by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode journey aggregation: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Count
	}
	return out, nil
}

func (r *mongoJourneyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
