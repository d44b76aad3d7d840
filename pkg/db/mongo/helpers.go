// Package mongo holds helpers shared by the Mongo repositories.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrInvalidObjectID is wrapped by ObjectIDFromHex failures.
var ErrInvalidObjectID = errors.New("invalid object id")

// WithTimeout bounds ctx by timeout unless the caller already has a tighter
// deadline. Session contexts are returned unchanged since wrapping them drops
// the session.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}

	return context.WithTimeout(ctx, timeout)
}

func ObjectIDFromHex(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", ErrInvalidObjectID, id)
	}
	return oid, nil
}

// ObjectIDsFromHex converts ids, skipping any that are not valid hex ids.
func ObjectIDsFromHex(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

// InsertedHex returns the hex form of an ObjectID assigned by InsertOne.
func InsertedHex(result *mongo.InsertOneResult) string {
	if result == nil {
		return ""
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

// IsDuplicateKeyOn reports whether err is a duplicate key error raised by an
// index covering field.
func IsDuplicateKeyOn(err error, field string) bool {
	if !mongo.IsDuplicateKeyError(err) {
		return false
	}
	return strings.Contains(err.Error(), field)
}

// Now returns the current time at the precision Mongo stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
