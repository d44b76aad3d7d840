package model

import (
	"time"
)

type Booking struct {
	ID               string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CheckIn          time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut         time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	NumOfAdults      int       `json:"num_of_adults" bson:"num_of_adults" validate:"min=1,max=20"`
	NumOfChildren    int       `json:"num_of_children" bson:"num_of_children" validate:"min=0,max=20"`
	TotalNumOfGuests int       `json:"total_num_of_guests" bson:"total_num_of_guests"`
	ConfirmationCode string    `json:"booking_confirmation_code" bson:"confirmation_code"`
	RoomID           string    `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	UserID           string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
}

// BookingRef is the summary of a booking kept inside its Room and its User.
type BookingRef struct {
	ID               string    `json:"id" bson:"id"`
	CheckIn          time.Time `json:"check_in" bson:"check_in"`
	CheckOut         time.Time `json:"check_out" bson:"check_out"`
	ConfirmationCode string    `json:"booking_confirmation_code" bson:"confirmation_code"`
	RoomID           string    `json:"room_id" bson:"room_id"`
	UserID           string    `json:"user_id" bson:"user_id"`
}

// Guests holds the party size requested for a stay.
type Guests struct {
	Adults   int `json:"num_of_adults" validate:"min=1,max=20"`
	Children int `json:"num_of_children" validate:"min=0,max=20"`
}

func (g Guests) Total() int {
	return g.Adults + g.Children
}

// BookingRequest is the body accepted when a guest books a room.
type BookingRequest struct {
	RoomID        string `json:"room_id" validate:"required,mongodb"`
	UserID        string `json:"user_id" validate:"omitempty,mongodb"`
	CheckIn       string `json:"check_in" validate:"required"`
	CheckOut      string `json:"check_out" validate:"required"`
	NumOfAdults   int    `json:"num_of_adults" validate:"min=1,max=20"`
	NumOfChildren int    `json:"num_of_children" validate:"min=0,max=20"`
}

func (r *BookingRequest) Guests() Guests {
	return Guests{Adults: r.NumOfAdults, Children: r.NumOfChildren}
}

func (b *Booking) Stay() StayRange {
	return StayRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

func (b *Booking) Ref() BookingRef {
	return BookingRef{
		ID:               b.ID,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		ConfirmationCode: b.ConfirmationCode,
		RoomID:           b.RoomID,
		UserID:           b.UserID,
	}
}

func (r BookingRef) Stay() StayRange {
	return StayRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

func containsRef(refs []BookingRef, bookingID string) bool {
	for _, ref := range refs {
		if ref.ID == bookingID {
			return true
		}
	}
	return false
}
