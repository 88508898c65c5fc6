package validator

import (
	"fmt"

	"spadesk/pkg/logger"
	"spadesk/pkg/model"
	"spadesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// statusRank orders the booking lifecycle. Bookings only move forward.
var statusRank = map[string]int{
	model.BookingStatusPending:   0,
	model.BookingStatusConfirmed: 1,
	model.BookingStatusCompleted: 2,
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("payment_method", validatePaymentMethod); err != nil {
		log.Fatal("Failed to register 'payment_method' validator",
			"error", err,
		)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return model.IsValidPaymentMethod(fl.Field().String())
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	return validation.Struct(v.validate, booking)
}

func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := validation.Struct(v.validate, update); err != nil {
		return err
	}

	if update.ServiceID == nil && update.BookingDate == nil && update.Duration == nil &&
		update.UseSelfOil == nil && update.ExtraOilFee == nil && update.AdditionalServiceID == nil &&
		update.Notes == nil {
		return validation.Field("BookingUpdate", "at least one field must be provided")
	}

	return nil
}

func (v *BookingValidator) ValidatePayment(req *model.PaymentConfirmation) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	if err := v.validate.Var(req.PaymentMethod, "payment_method"); err != nil {
		return validation.Field("PaymentMethod", fmt.Sprintf("unknown payment method %q", req.PaymentMethod))
	}
	return nil
}

// ValidateTransition accepts a move strictly forward in the lifecycle.
func (v *BookingValidator) ValidateTransition(from, to string) error {
	toRank, ok := statusRank[to]
	if !ok {
		return validation.Field("Status", fmt.Sprintf("unknown status %q", to))
	}
	if fromRank, ok := statusRank[from]; ok && toRank <= fromRank {
		return validation.Field("Status", fmt.Sprintf("cannot move from %s to %s", from, to))
	}
	return nil
}
