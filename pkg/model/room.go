package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Room struct {
	ID          string               `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomType    string               `json:"room_type" bson:"room_type" validate:"required,min=2,max=50"`
	Price       primitive.Decimal128 `json:"room_price" bson:"room_price" validate:"price"`
	Description string               `json:"room_description,omitempty" bson:"room_description" validate:"omitempty,max=1000"`
	PhotoURL    string               `json:"room_photo_url,omitempty" bson:"room_photo_url" validate:"omitempty,url"`
	Bookings    []BookingRef         `json:"bookings" bson:"bookings"`

	// BookingsVersion increases on every change to Bookings. Writers compare it
	// to the value they read before appending.
	BookingsVersion int64     `json:"-" bson:"bookings_version"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// RoomRequest is the body accepted when an administrator adds a room.
type RoomRequest struct {
	RoomType    string `json:"room_type" validate:"required,min=2,max=50"`
	Price       string `json:"room_price" validate:"required,numeric"`
	Description string `json:"room_description,omitempty" validate:"omitempty,max=1000"`
	PhotoURL    string `json:"room_photo_url,omitempty" validate:"omitempty,url"`
}

// RoomUpdate carries the fields an administrator may change. Nil fields are left untouched.
type RoomUpdate struct {
	RoomType    *string `json:"room_type,omitempty" validate:"omitempty,min=2,max=50"`
	Price       *string `json:"room_price,omitempty" validate:"omitempty,numeric"`
	Description *string `json:"room_description,omitempty" validate:"omitempty,max=1000"`
	PhotoURL    *string `json:"room_photo_url,omitempty" validate:"omitempty,url"`
}

func (u *RoomUpdate) Empty() bool {
	return u.RoomType == nil && u.Price == nil && u.Description == nil && u.PhotoURL == nil
}

// StayRanges lists the stays currently held on the room.
func (r *Room) StayRanges() []StayRange {
	ranges := make([]StayRange, 0, len(r.Bookings))
	for _, b := range r.Bookings {
		ranges = append(ranges, b.Stay())
	}
	return ranges
}

func (r *Room) HasBooking(bookingID string) bool {
	return containsRef(r.Bookings, bookingID)
}
