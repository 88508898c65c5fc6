package validator

import (
	"spadesk/pkg/logger"
	"spadesk/pkg/model"
	"spadesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type VisitValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVisitValidator(log *logger.Logger) *VisitValidator {
	return &VisitValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *VisitValidator) Validate(visit *model.Visit) error {
	return validation.Struct(v.validate, visit)
}

func (v *VisitValidator) ValidateRequest(req *model.VisitRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	if req.OriginalPrice != nil && req.FinalPrice == nil {
		return validation.Field("OriginalPrice", "original_price requires final_price")
	}
	return nil
}

func (v *VisitValidator) ValidateUpdate(update *model.VisitUpdate) error {
	if err := validation.Struct(v.validate, update); err != nil {
		return err
	}

	if update.VisitDate == nil && update.Duration == nil && update.FinalPrice == nil &&
		update.PaymentMethod == nil && update.PaymentStatus == nil && update.Notes == nil {
		return validation.Field("VisitUpdate", "at least one field must be provided")
	}

	return nil
}
