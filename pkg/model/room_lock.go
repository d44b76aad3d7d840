package model

import "time"

// RoomLock serializes booking writes on a single room. The document _id is the
// room id, so a second insert for the same room fails with a duplicate key.
// A TTL index on expires_at removes locks left behind by crashed processes.
type RoomLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
