package validator

import (
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"
	"tourdesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	return &UserValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *UserValidator) ValidateCreate(user *model.User) validation.FieldErrors {
	if err := v.validate.Struct(user); err != nil {
		return validation.Translate(err)
	}
	return nil
}

func (v *UserValidator) ValidatePatch(patch *model.UserPatch) validation.FieldErrors {
	if err := v.validate.Struct(patch); err != nil {
		return validation.Translate(err)
	}
	return nil
}
