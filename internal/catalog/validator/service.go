package validator

import (
	"spadesk/pkg/logger"
	"spadesk/pkg/model"
	"spadesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ServiceValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewServiceValidator(log *logger.Logger) *ServiceValidator {
	return &ServiceValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *ServiceValidator) Validate(service *model.Service) error {
	if err := validation.Struct(v.validate, service); err != nil {
		return err
	}

	if service.SelfOilPrice != nil && *service.SelfOilPrice > service.Price {
		return validation.Field("SelfOilPrice", "self_oil_price cannot exceed price")
	}

	return nil
}
