package model

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestCustomer_TagRules(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name        string
		mutate      func(c *Customer)
		expectValid bool
	}{
		{name: "valid customer", mutate: func(c *Customer) {}, expectValid: true},
		{name: "missing name", mutate: func(c *Customer) { c.Name = "" }},
		{name: "local phone format", mutate: func(c *Customer) { c.Phone = "0912345678" }},
		{name: "bad email", mutate: func(c *Customer) { c.Email = "not-an-email" }},
		{name: "unknown level", mutate: func(c *Customer) { c.MembershipLevel = "gold" }},
		{name: "negative balance", mutate: func(c *Customer) { c.Balance = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Customer{
				Name:            "林小姐",
				Phone:           "+886912345678",
				Email:           "lin@example.com",
				MembershipLevel: MembershipRegular,
			}
			tt.mutate(c)

			err := validate.Struct(c)
			if tt.expectValid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.expectValid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCustomer_IsActiveVIP(t *testing.T) {
	end := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name     string
		customer Customer
		at       time.Time
		want     bool
	}{
		{
			name:     "regular member",
			customer: Customer{MembershipLevel: MembershipRegular},
			at:       end,
			want:     false,
		},
		{
			name:     "vip without end date",
			customer: Customer{MembershipLevel: MembershipVIP},
			at:       end.AddDate(5, 0, 0),
			want:     true,
		},
		{
			name:     "vip on the last day",
			customer: Customer{MembershipLevel: MembershipVIP, VIPEndDate: &end},
			at:       end,
			want:     true,
		},
		{
			name:     "vip after expiry",
			customer: Customer{MembershipLevel: MembershipVIP, VIPEndDate: &end},
			at:       end.Add(time.Second),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.customer.IsActiveVIP(tt.at); got != tt.want {
				t.Errorf("IsActiveVIP() = %v, want %v", got, tt.want)
			}
			wantLevel := MembershipRegular
			if tt.want {
				wantLevel = MembershipVIP
			}
			if got := tt.customer.MembershipAt(tt.at); got != wantLevel {
				t.Errorf("MembershipAt() = %q, want %q", got, wantLevel)
			}
		})
	}
}

func TestVisit_Charge(t *testing.T) {
	v := &Visit{FinalPrice: 1600, AdditionalServicePrice: 500, PaymentMethod: PaymentDeposit}
	if got := v.Charge(); got != 2100 {
		t.Errorf("Charge() = %d, want 2100", got)
	}
	if !v.PaidByDeposit() {
		t.Error("expected deposit visit")
	}

	v.PaymentMethod = PaymentCard
	if v.PaidByDeposit() {
		t.Error("card visit reported as deposit")
	}
}

func TestIsValidPaymentMethod(t *testing.T) {
	for method, want := range map[string]bool{
		PaymentCash:    true,
		PaymentCard:    true,
		PaymentDeposit: true,
		"voucher":      false,
		"":             false,
	} {
		if got := IsValidPaymentMethod(method); got != want {
			t.Errorf("IsValidPaymentMethod(%q) = %v, want %v", method, got, want)
		}
	}
}
