package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "paradisian/internal/bookings/errors"
	"paradisian/pkg/config"
	dbmongo "paradisian/pkg/db/mongo"
	"paradisian/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Booking, error)
	FindByConfirmationCode(ctx context.Context, code string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error

	DistinctRoomIDsInRange(ctx context.Context, stay model.StayRange) ([]string, error)
	FindCreatedBefore(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]*model.Booking, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Create inserts the booking. A clash on the unique confirmation_code index is
// reported as ErrDuplicateConfirmationCode so callers can draw a new code.
func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.ID = ""
	booking.CreatedAt = dbmongo.Now()
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if dbmongo.IsDuplicateKeyOn(err, "confirmation_code") {
			return bookingserrors.ErrDuplicateConfirmationCode
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.ID = dbmongo.InsertedHex(result)
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoBookingRepository) FindByConfirmationCode(ctx context.Context, code string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"confirmation_code": code})
}

func (r *mongoBookingRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Booking, error) {
	if len(ids) == 0 {
		return []*model.Booking{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": dbmongo.ObjectIDsFromHex(ids)}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}}))
}

// FindAll lists bookings newest first.
func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

// DistinctRoomIDsInRange returns the rooms holding a booking that touches stay:
// check_in <= stay.CheckOut and check_out >= stay.CheckIn. The filter is
// inclusive at both ends, so back-to-back bookings are included.
func (r *mongoBookingRepository) DistinctRoomIDsInRange(ctx context.Context, stay model.StayRange) ([]string, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"check_in":  bson.M{"$lte": stay.CheckOut},
		"check_out": bson.M{"$gte": stay.CheckIn},
	}

	values, err := r.collection.Distinct(ctx, "room_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find booked rooms: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// FindCreatedBefore pages through bookings created before cutoff in _id order,
// starting after afterID when it is set.
func (r *mongoBookingRepository) FindCreatedBefore(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]*model.Booking, error) {
	filter := bson.M{"created_at": bson.M{"$lt": cutoff}}
	if afterID != "" {
		oid, err := primitive.ObjectIDFromHex(afterID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, afterID)
		}
		filter["_id"] = bson.M{"$gt": oid}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

// ExistingIDs reports which of ids still have a booking document.
func (r *mongoBookingRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$in": dbmongo.ObjectIDsFromHex(ids)}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to check bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode booking ids: %w", err)
	}
	for _, d := range docs {
		existing[d.ID.Hex()] = true
	}
	return existing, nil
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	if err := r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}
