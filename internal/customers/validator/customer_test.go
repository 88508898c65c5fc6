package validator

import (
	"spadesk/pkg/logger"
	"spadesk/pkg/model"
	"testing"
)

func validCustomer() *model.Customer {
	return &model.Customer{
		Name:            "王小明",
		Phone:           "+886912345678",
		Email:           "ming@example.com",
		MembershipLevel: model.MembershipRegular,
	}
}

func TestCustomerValidator_Validate(t *testing.T) {
	v := NewCustomerValidator(logger.Nop())

	tests := []struct {
		name    string
		mutate  func(*model.Customer)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *model.Customer) {}},
		{name: "missing name", mutate: func(c *model.Customer) { c.Name = "" }, wantErr: true},
		{name: "phone not e164", mutate: func(c *model.Customer) { c.Phone = "0912345678" }, wantErr: true},
		{name: "bad email", mutate: func(c *model.Customer) { c.Email = "not-an-email" }, wantErr: true},
		{name: "unknown level", mutate: func(c *model.Customer) { c.MembershipLevel = "gold" }, wantErr: true},
		{name: "negative balance", mutate: func(c *model.Customer) { c.Balance = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCustomer()
			tt.mutate(c)
			err := v.Validate(c)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCustomerValidator_ValidateUpdate_Empty(t *testing.T) {
	v := NewCustomerValidator(logger.Nop())
	if err := v.ValidateUpdate(&model.CustomerUpdate{}); err == nil {
		t.Error("expected error for empty update")
	}
	name := "New Name"
	if err := v.ValidateUpdate(&model.CustomerUpdate{Name: &name}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
