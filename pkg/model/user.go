package model

import "time"

type User struct {
	ID           string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string       `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email        string       `json:"email" bson:"email" validate:"required,email"`
	PhoneNumber  string       `json:"phone_number" bson:"phone_number" validate:"required,e164"`
	Role         string       `json:"role" bson:"role" validate:"required,oneof=USER ADMIN"`
	PasswordHash string       `json:"-" bson:"password"`
	Bookings     []BookingRef `json:"bookings" bson:"bookings"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
}

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token          string    `json:"token"`
	Role           string    `json:"role"`
	ExpirationTime time.Time `json:"expiration_time"`
}

type ProfileUpdate struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

func (u *User) HasBooking(bookingID string) bool {
	return containsRef(u.Bookings, bookingID)
}
