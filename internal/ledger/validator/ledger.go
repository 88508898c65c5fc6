package validator

import (
	"fmt"

	"spadesk/pkg/logger"
	"spadesk/pkg/model"
	"spadesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type LedgerValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewLedgerValidator(log *logger.Logger) *LedgerValidator {
	return &LedgerValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateDeposit checks the request shape and the configured minimum top-up.
// The bonus does not count towards the minimum.
func (v *LedgerValidator) ValidateDeposit(req *model.DepositRequest, minAmount int64) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	if req.Amount < minAmount {
		return validation.Field("Amount", fmt.Sprintf("amount must be at least %d", minAmount))
	}
	return nil
}

func (v *LedgerValidator) ValidateVIPPurchase(req *model.VIPPurchaseRequest) error {
	return validation.Struct(v.validate, req)
}
