package validator

import (
	"fmt"
	"paradisian/pkg/logger"
	"paradisian/pkg/model"
	"paradisian/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// MaxGuests caps the party size of a single booking.
const MaxGuests = 30

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validation.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateRequest checks the request body shape and returns the parsed stay.
// Ordering of the two dates is left to the service, which reports it as an
// invalid range rather than a validation failure.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) (model.StayRange, error) {
	if err := validation.Struct(v.validate, req); err != nil {
		return model.StayRange{}, err
	}

	stay, err := model.ParseStayRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return model.StayRange{}, validation.ValidationErrors{
			validation.ValidationError{Field: "dates", Message: err.Error()},
		}
	}

	if err := v.ValidateGuests(req.Guests()); err != nil {
		return model.StayRange{}, err
	}

	return stay, nil
}

func (v *BookingValidator) ValidateGuests(guests model.Guests) error {
	if err := validation.Struct(v.validate, guests); err != nil {
		return err
	}
	if guests.Total() > MaxGuests {
		return validation.ValidationErrors{
			validation.ValidationError{
				Field:   "guests",
				Message: fmt.Sprintf("total guests (%d) exceeds maximum (%d)", guests.Total(), MaxGuests),
			},
		}
	}
	return nil
}
