package validator

import (
	"time"

	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"
	"tourdesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	validate := validator.New()
	if err := validate.RegisterValidation("future", validateFuture); err != nil {
		log.Error("Failed to register future validation", "error", err)
	}
	return &BookingValidator{
		validate: validate,
		logger:   log,
	}
}

// validateFuture accepts only timestamps strictly after now.
func validateFuture(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return date.After(time.Now().UTC())
}

func (v *BookingValidator) ValidateCreate(booking *model.Booking) validation.FieldErrors {
	if err := v.validate.Struct(booking); err != nil {
		return validation.Translate(err)
	}
	return v.validatePassengers(booking.Passengers)
}

func (v *BookingValidator) ValidatePatch(patch *model.BookingPatch) validation.FieldErrors {
	if err := v.validate.Struct(patch); err != nil {
		return validation.Translate(err)
	}

	if patch.Passengers != nil {
		return v.validatePassengers(*patch.Passengers)
	}
	return nil
}

func (v *BookingValidator) ValidateCustomerPatch(patch *model.BookingCustomerPatch) validation.FieldErrors {
	if err := v.validate.Struct(patch); err != nil {
		return validation.Translate(err)
	}

	if patch.Passengers != nil {
		return v.validatePassengers(*patch.Passengers)
	}
	return nil
}

// validatePassengers rejects birth dates with a zero value slipping
// through the dive tag when the slice element arrives empty.
func (v *BookingValidator) validatePassengers(passengers []model.Passenger) validation.FieldErrors {
	var errs validation.FieldErrors
	for _, p := range passengers {
		if p.DateOfBirth.IsZero() {
			errs = append(errs, validation.FieldError{
				Field:   "Passengers.DateOfBirth",
				Message: "is required",
			})
			break
		}
	}
	return errs
}
