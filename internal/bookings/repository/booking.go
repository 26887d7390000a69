package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingerrors "tourdesk/internal/bookings/errors"
	"tourdesk/pkg/config"
	mongotx "tourdesk/pkg/db/mongo"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

// activeStatuses are the booking states that hold a seat on a journey.
var activeStatuses = []model.BookingStatus{
	model.BookingStatusPending,
	model.BookingStatusConfirmed,
	model.BookingStatusInProgress,
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
	Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	CountActiveByJourney(ctx context.Context, journeyID string) (int64, error)
	Stats(ctx context.Context) (*model.BookingStats, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	if !includeDeleted {
		filter["meta.is_deleted"] = false
	}

	var booking model.Booking
	if err := r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{"meta.is_deleted": false}, limit, offset)
}

func (r *mongoBookingRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{
		"customer_id":     customerID,
		"meta.is_deleted": false,
	}, limit, offset)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "travel_date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"meta.is_deleted": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"customer_id":     customerID,
		"meta.is_deleted": false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	replacement := *booking
	replacement.ID = ""

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objectID}, &replacement)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, bookingerrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoBookingRepository) CountActiveByJourney(ctx context.Context, journeyID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"journey_id":      journeyID,
		"status":          bson.M{"$in": activeStatuses},
		"meta.is_deleted": false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings for journey: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) Stats(ctx context.Context) (*model.BookingStats, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	stats := &model.BookingStats{
		ByStatus: make(map[string]int64),
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	stats.Total = total

	deleted, err := r.collection.CountDocuments(ctx, bson.M{"meta.is_deleted": true})
	if err != nil {
		return nil, fmt.Errorf("failed to count deleted bookings: %w", err)
	}
	stats.Deleted = deleted

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	recent, err := r.collection.CountDocuments(ctx, bson.M{
		"meta.is_deleted": false,
		"meta.created_at": bson.M{"$gte": weekAgo},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count recent bookings: %w", err)
	}
	stats.CreatedLast7Days = recent

	byStatus, err := r.groupCounts(ctx, "$status")
	if err != nil {
		return nil, err
	}
	stats.ByStatus = byStatus

	// Revenue counts only bookings that were actually honored.
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"meta.is_deleted": false,
			"status": bson.M{"$in": []model.BookingStatus{
				model.BookingStatusConfirmed,
				model.BookingStatusCompleted,
			}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total_price"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sum booking revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode booking revenue: %w", err)
	}
	if len(rows) > 0 {
		stats.TotalRevenue = rows[0].Total
	}

	return stats, nil
}

func (r *mongoBookingRepository) groupCounts(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"meta.is_deleted": false}}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode booking aggregation: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Count
	}
	return out, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
