package validator

import (
	"spadesk/pkg/logger"
	"spadesk/pkg/model"
	"spadesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type CustomerValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCustomerValidator(log *logger.Logger) *CustomerValidator {
	return &CustomerValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *CustomerValidator) Validate(customer *model.Customer) error {
	return validation.Struct(v.validate, customer)
}

func (v *CustomerValidator) ValidateUpdate(update *model.CustomerUpdate) error {
	if err := validation.Struct(v.validate, update); err != nil {
		return err
	}

	if update.Name == nil && update.Phone == nil && update.Email == nil && update.Notes == nil {
		return validation.Field("CustomerUpdate", "at least one field must be provided")
	}

	return nil
}
