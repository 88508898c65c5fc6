package validator

import (
	"testing"

	"spadesk/pkg/logger"
	"spadesk/pkg/model"
)

func TestBookingValidator_ValidateTransition(t *testing.T) {
	v := NewBookingValidator(logger.Nop())

	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{name: "pending to confirmed", from: model.BookingStatusPending, to: model.BookingStatusConfirmed},
		{name: "confirmed to completed", from: model.BookingStatusConfirmed, to: model.BookingStatusCompleted},
		{name: "pending to completed", from: model.BookingStatusPending, to: model.BookingStatusCompleted},
		{name: "completed to pending", from: model.BookingStatusCompleted, to: model.BookingStatusPending, wantErr: true},
		{name: "confirmed to confirmed", from: model.BookingStatusConfirmed, to: model.BookingStatusConfirmed, wantErr: true},
		{name: "unknown target", from: model.BookingStatusPending, to: "cancelled", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTransition(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestBookingValidator_ValidatePayment(t *testing.T) {
	v := NewBookingValidator(logger.Nop())

	tests := []struct {
		method  string
		wantErr bool
	}{
		{method: model.PaymentCash},
		{method: model.PaymentCard},
		{method: model.PaymentDeposit},
		{method: "", wantErr: true},
		{method: "cheque", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			err := v.ValidatePayment(&model.PaymentConfirmation{PaymentMethod: tt.method})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePayment(%q) error = %v, wantErr %v", tt.method, err, tt.wantErr)
			}
		})
	}
}

func TestBookingValidator_ValidateUpdate_RequiresAField(t *testing.T) {
	v := NewBookingValidator(logger.Nop())

	if err := v.ValidateUpdate(&model.BookingUpdate{}); err == nil {
		t.Fatal("expected error for empty update")
	}

	notes := "bring towel"
	if err := v.ValidateUpdate(&model.BookingUpdate{Notes: &notes}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
