package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	roomserrors "paradisian/internal/rooms/errors"
	"paradisian/pkg/config"
	dbmongo "paradisian/pkg/db/mongo"
	"paradisian/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Rooms"
)

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindAll(ctx context.Context) ([]*model.Room, error)
	Update(ctx context.Context, id string, room *model.Room) error
	DeleteIfUnbooked(ctx context.Context, id string) error

	FindByTypeExcluding(ctx context.Context, roomType string, excludedIDs []string) ([]*model.Room, error)
	FindWithNoBookings(ctx context.Context) ([]*model.Room, error)
	DistinctRoomTypes(ctx context.Context) ([]string, error)

	AppendBooking(ctx context.Context, roomID string, ref model.BookingRef, expectedVersion int64) error
	RemoveBooking(ctx context.Context, roomID string, bookingID string) (bool, error)
	FindLinked(ctx context.Context) ([]*model.Room, error)
}

type mongoRoomRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomRepository(cfg *config.Config) RoomRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRoomRepository) Create(ctx context.Context, room *model.Room) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	room.ID = ""
	room.CreatedAt = dbmongo.Now()
	room.Bookings = []model.BookingRef{}
	room.BookingsVersion = 0

	result, err := r.collection.InsertOne(ctx, room)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	room.ID = dbmongo.InsertedHex(result)
	return nil
}

func (r *mongoRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}

	var room model.Room
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, roomserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

func (r *mongoRoomRepository) FindAll(ctx context.Context) ([]*model.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoRoomRepository) Update(ctx context.Context, id string, room *model.Room) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"room_type":        room.RoomType,
			"room_price":       room.Price,
			"room_description": room.Description,
			"room_photo_url":   room.PhotoURL,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if result.MatchedCount == 0 {
		return roomserrors.ErrNotFound
	}
	return nil
}

// DeleteIfUnbooked removes the room only while its booking list is empty.
func (r *mongoRoomRepository) DeleteIfUnbooked(ctx context.Context, id string) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "bookings": bson.M{"$size": 0}})
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if result.DeletedCount > 0 {
		return nil
	}
	return r.explainMiss(ctx, objectID, roomserrors.ErrHasBookings)
}

// FindByTypeExcluding returns rooms of roomType (case-insensitive) whose id is
// not in excludedIDs.
func (r *mongoRoomRepository) FindByTypeExcluding(ctx context.Context, roomType string, excludedIDs []string) ([]*model.Room, error) {
	filter := bson.M{
		"room_type": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(roomType) + "$", Options: "i"},
	}
	if len(excludedIDs) > 0 {
		filter["_id"] = bson.M{"$nin": dbmongo.ObjectIDsFromHex(excludedIDs)}
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *mongoRoomRepository) FindWithNoBookings(ctx context.Context) ([]*model.Room, error) {
	filter := bson.M{"bookings": bson.M{"$size": 0}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// FindLinked returns every room holding at least one booking summary.
func (r *mongoRoomRepository) FindLinked(ctx context.Context) ([]*model.Room, error) {
	filter := bson.M{"bookings.0": bson.M{"$exists": true}}
	return r.find(ctx, filter, options.Find())
}

func (r *mongoRoomRepository) DistinctRoomTypes(ctx context.Context) ([]string, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$room_type"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate room types: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		RoomType string `bson:"_id"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode room types: %w", err)
	}

	types := make([]string, 0, len(groups))
	for _, g := range groups {
		types = append(types, g.RoomType)
	}
	return types, nil
}

// AppendBooking pushes ref onto the room's booking list if the list is still at
// expectedVersion and does not already hold ref.
func (r *mongoRoomRepository) AppendBooking(ctx context.Context, roomID string, ref model.BookingRef, expectedVersion int64) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, roomID)
	}

	filter := bson.M{
		"_id":              objectID,
		"bookings_version": expectedVersion,
		"bookings.id":      bson.M{"$ne": ref.ID},
	}
	update := bson.M{
		"$push": bson.M{"bookings": ref},
		"$inc":  bson.M{"bookings_version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to link booking to room: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	return r.explainMiss(ctx, objectID, roomserrors.ErrVersionConflict)
}

// RemoveBooking pulls bookingID from the room's list. It reports false when
// the room exists but did not reference the booking.
func (r *mongoRoomRepository) RemoveBooking(ctx context.Context, roomID string, bookingID string) (bool, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, roomID)
	}

	filter := bson.M{"_id": objectID, "bookings.id": bookingID}
	update := bson.M{
		"$pull": bson.M{"bookings": bson.M{"id": bookingID}},
		"$inc":  bson.M{"bookings_version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to unlink booking from room: %w", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}
	if err := r.explainMiss(ctx, objectID, nil); err != nil {
		return false, err
	}
	return false, nil
}

// explainMiss distinguishes a missing room from a conditional filter that did
// not match, returning ifExists in the latter case.
func (r *mongoRoomRepository) explainMiss(ctx context.Context, objectID primitive.ObjectID, ifExists error) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check room existence: %w", err)
	}
	if count == 0 {
		return roomserrors.ErrNotFound
	}
	return ifExists
}

func (r *mongoRoomRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Room, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []*model.Room{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}
