package repository

import (
	"context"
	"errors"
	"fmt"

	userserrors "paradisian/internal/users/errors"
	"paradisian/pkg/config"
	dbmongo "paradisian/pkg/db/mongo"
	"paradisian/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	UpdateName(ctx context.Context, id string, name string) error
	DeleteIfUnbooked(ctx context.Context, id string) error

	AppendBooking(ctx context.Context, userID string, ref model.BookingRef) error
	RemoveBooking(ctx context.Context, userID string, bookingID string) (bool, error)
	FindLinked(ctx context.Context) ([]*model.User, error)
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	user.ID = ""
	user.CreatedAt = dbmongo.Now()
	user.Bookings = []model.BookingRef{}

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		switch {
		case dbmongo.IsDuplicateKeyOn(err, "email"):
			return userserrors.ErrEmailTaken
		case dbmongo.IsDuplicateKeyOn(err, "phone_number"):
			return userserrors.ErrPhoneTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = dbmongo.InsertedHex(result)
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
}

func (r *mongoUserRepository) FindLinked(ctx context.Context) ([]*model.User, error) {
	return r.find(ctx, bson.M{"bookings.0": bson.M{"$exists": true}}, options.Find())
}

func (r *mongoUserRepository) UpdateName(ctx context.Context, id string, name string) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"name": name}})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) DeleteIfUnbooked(ctx context.Context, id string) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "bookings": bson.M{"$size": 0}})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount > 0 {
		return nil
	}
	exists, err := r.exists(ctx, objectID)
	if err != nil {
		return err
	}
	if !exists {
		return userserrors.ErrNotFound
	}
	return userserrors.ErrHasBookings
}

// AppendBooking links ref to the user. Linking an already linked booking is a no-op.
func (r *mongoUserRepository) AppendBooking(ctx context.Context, userID string, ref model.BookingRef) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, userID)
	}

	filter := bson.M{"_id": objectID, "bookings.id": bson.M{"$ne": ref.ID}}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"bookings": ref}})
	if err != nil {
		return fmt.Errorf("failed to link booking to user: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	exists, err := r.exists(ctx, objectID)
	if err != nil {
		return err
	}
	if !exists {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) RemoveBooking(ctx context.Context, userID string, bookingID string) (bool, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, userID)
	}

	filter := bson.M{"_id": objectID, "bookings.id": bookingID}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$pull": bson.M{"bookings": bson.M{"id": bookingID}}})
	if err != nil {
		return false, fmt.Errorf("failed to unlink booking from user: %w", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}
	exists, err := r.exists(ctx, objectID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, userserrors.ErrNotFound
	}
	return false, nil
}

func (r *mongoUserRepository) exists(ctx context.Context, objectID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.User, error) {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
