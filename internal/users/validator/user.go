package validator

import (
	"paradisian/pkg/logger"
	"paradisian/pkg/model"
	"paradisian/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	v := validation.New()

	log.Info("User validator initialized successfully")

	return &UserValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a fully normalized user before it is stored.
func (v *UserValidator) Validate(user *model.User) error {
	return validation.Struct(v.validate, user)
}

func (v *UserValidator) ValidateRegister(req *model.RegisterRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *UserValidator) ValidateLogin(req *model.LoginRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *UserValidator) ValidateProfile(update *model.ProfileUpdate) error {
	return validation.Struct(v.validate, update)
}
