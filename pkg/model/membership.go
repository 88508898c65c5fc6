package model

import "time"

const (
	MembershipRegular = "regular"
	MembershipVIP     = "vip"
)

const (
	PaymentCash    = "cash"
	PaymentCard    = "card"
	PaymentDeposit = "deposit"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// IsActiveVIP reports whether the VIP period covers t. A VIP without an end
// date never expires.
func (c *Customer) IsActiveVIP(t time.Time) bool {
	if c.MembershipLevel != MembershipVIP {
		return false
	}
	if c.VIPEndDate == nil {
		return true
	}
	return !t.After(*c.VIPEndDate)
}

// MembershipAt returns the level that prices a transaction happening at t.
func (c *Customer) MembershipAt(t time.Time) string {
	if c.IsActiveVIP(t) {
		return MembershipVIP
	}
	return MembershipRegular
}

func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentDeposit:
		return true
	}
	return false
}
