package validator

import (
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"
	"tourdesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type JourneyValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewJourneyValidator(log *logger.Logger) *JourneyValidator {
	return &JourneyValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *JourneyValidator) ValidateCreate(journey *model.Journey) validation.FieldErrors {
	if err := v.validate.Struct(journey); err != nil {
		return validation.Translate(err)
	}
	return v.validateNested(&journey.Duration, &journey.Pricing, &journey.Schedule)
}

func (v *JourneyValidator) ValidatePatch(patch *model.JourneyPatch) validation.FieldErrors {
	if err := v.validate.Struct(patch); err != nil {
		return validation.Translate(err)
	}
	return v.validateNested(patch.Duration, patch.Pricing, patch.Schedule)
}

// validateNested re-runs the struct rules on optional nested values the
// patch tags cannot reach through pointers.
func (v *JourneyValidator) validateNested(duration *model.Duration, pricing *model.Pricing, schedule *model.Schedule) validation.FieldErrors {
	var errs validation.FieldErrors

	if duration != nil {
		if err := v.validate.Struct(duration); err != nil {
			errs = append(errs, validation.Translate(err)...)
		}
	}
	if pricing != nil {
		if err := v.validate.Struct(pricing); err != nil {
			errs = append(errs, validation.Translate(err)...)
		}
	}
	if schedule != nil {
		if err := v.validate.Struct(schedule); err != nil {
			errs = append(errs, validation.Translate(err)...)
		}
	}

	return errs
}
