package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "paradisian/internal/bookings/errors"
	"paradisian/pkg/config"
	dbmongo "paradisian/pkg/db/mongo"
	"paradisian/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Room_locks"
)

// RoomLockRepository stores advisory locks keyed by room id.
type RoomLockRepository interface {
	Acquire(ctx context.Context, lock *model.RoomLock) error
	Release(ctx context.Context, roomID string, owner string) error
}

type mongoRoomLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewRoomLockRepository(cfg *config.Config) RoomLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. It returns ErrRoomLocked while another
// unexpired lock exists for the room. Expired locks are cleared first because
// the TTL monitor only runs about once a minute.
func (r *mongoRoomLockRepository) Acquire(ctx context.Context, lock *model.RoomLock) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": now}}); err != nil {
		return fmt.Errorf("failed to clear expired room lock: %w", err)
	}

	lock.CreatedAt = now
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrRoomLocked
		}
		return fmt.Errorf("failed to acquire room lock: %w", err)
	}
	return nil
}

// Release deletes the lock only when owner still holds it.
func (r *mongoRoomLockRepository) Release(ctx context.Context, roomID string, owner string) error {
	ctx, cancel := dbmongo.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": roomID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release room lock: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrLockNotHeld
	}
	return nil
}
