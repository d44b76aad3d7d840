package validator

import (
	"math/big"

	"paradisian/pkg/logger"
	"paradisian/pkg/model"
	"paradisian/pkg/validation"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	v := validation.New()

	if err := v.RegisterValidation("price", validatePrice); err != nil {
		log.Fatal("Failed to register 'price' validator", "error", err)
	}

	log.Info("Room validator initialized successfully")

	return &RoomValidator{
		validate: v,
		logger:   log,
	}
}

// validatePrice accepts finite, non-negative Decimal128 amounts.
func validatePrice(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(primitive.Decimal128)
	if !ok {
		return false
	}
	if d.IsNaN() || d.IsInf() != 0 {
		return false
	}
	bigInt, _, err := d.BigInt()
	if err != nil {
		return false
	}
	return bigInt.Cmp(big.NewInt(0)) >= 0
}

func (v *RoomValidator) Validate(room *model.Room) error {
	return validation.Struct(v.validate, room)
}

func (v *RoomValidator) ValidateRequest(req *model.RoomRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *RoomValidator) ValidateUpdate(update *model.RoomUpdate) error {
	return validation.Struct(v.validate, update)
}
