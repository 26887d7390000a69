package validator

import (
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"
	"tourdesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ProviderValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProviderValidator(log *logger.Logger) *ProviderValidator {
	return &ProviderValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *ProviderValidator) ValidateCreate(provider *model.Provider) validation.FieldErrors {
	if err := v.validate.Struct(provider); err != nil {
		return validation.Translate(err)
	}

	return v.validateRating(&provider.Rating)
}

func (v *ProviderValidator) ValidatePatch(patch *model.ProviderPatch) validation.FieldErrors {
	if err := v.validate.Struct(patch); err != nil {
		return validation.Translate(err)
	}

	if patch.Rating != nil {
		return v.validateRating(patch.Rating)
	}
	return nil
}

// validateRating enforces the 0..5 average range also when the rating
// arrives as a nested value the struct tags cannot reach.
func (v *ProviderValidator) validateRating(rating *model.Rating) validation.FieldErrors {
	var errs validation.FieldErrors
	if rating.Average < 0 || rating.Average > 5 {
		errs = append(errs, validation.FieldError{
			Field:   "Rating.Average",
			Message: "must be between 0 and 5",
		})
	}
	if rating.Count < 0 {
		errs = append(errs, validation.FieldError{
			Field:   "Rating.Count",
			Message: "must not be negative",
		})
	}
	return errs
}
