package model

import "time"

type DepositRecord struct {
	ID                  string     `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID          string     `json:"customer_id" bson:"customer_id" validate:"required,mongodb"`
	CustomerName        string     `json:"customer_name" bson:"customer_name"`
	Amount              int64      `json:"amount" bson:"amount" validate:"min=0"`
	BonusAmount         int64      `json:"bonus_amount" bson:"bonus_amount" validate:"min=0"`
	TotalAmount         int64      `json:"total_amount" bson:"total_amount"`
	PaymentMethod       string     `json:"payment_method" bson:"payment_method" validate:"required,oneof=cash card"`
	PreviousBalance     int64      `json:"previous_balance" bson:"previous_balance"`
	NewBalance          int64      `json:"new_balance" bson:"new_balance"`
	ReceiptNumber       string     `json:"receipt_number" bson:"receipt_number"`
	Operator            string     `json:"operator,omitempty" bson:"operator,omitempty"`
	Notes               string     `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=500"`
	SignatureVerified   bool       `json:"signature_verified" bson:"signature_verified"`
	SignatureVerifiedAt *time.Time `json:"signature_verified_at,omitempty" bson:"signature_verified_at,omitempty"`
	SignatureVerifiedBy string     `json:"signature_verified_by,omitempty" bson:"signature_verified_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at" bson:"created_at"`
}

type DepositRequest struct {
	Amount        int64  `json:"amount" validate:"required,min=1"`
	BonusAmount   int64  `json:"bonus_amount" validate:"min=0"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card"`
	Notes         string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type BalanceUsageRecord struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID    string     `json:"customer_id" bson:"customer_id"`
	VisitID       string     `json:"visit_id" bson:"visit_id"`
	ServiceName   string     `json:"service_name" bson:"service_name"`
	Amount        int64      `json:"amount" bson:"amount"`
	BalanceBefore int64      `json:"balance_before" bson:"balance_before"`
	BalanceAfter  int64      `json:"balance_after" bson:"balance_after"`
	Reversed      bool       `json:"reversed" bson:"reversed"`
	ReversedAt    *time.Time `json:"reversed_at,omitempty" bson:"reversed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}

type VIPPurchase struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID    string    `json:"customer_id" bson:"customer_id"`
	Amount        int64     `json:"amount" bson:"amount"`
	PaymentMethod string    `json:"payment_method" bson:"payment_method"`
	BalanceBefore int64     `json:"balance_before" bson:"balance_before"`
	BalanceAfter  int64     `json:"balance_after" bson:"balance_after"`
	VIPStartDate  time.Time `json:"vip_start_date" bson:"vip_start_date"`
	VIPEndDate    time.Time `json:"vip_end_date" bson:"vip_end_date"`
	Operator      string    `json:"operator,omitempty" bson:"operator,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

type VIPPurchaseRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card deposit"`
}

// Reconciliation compares the balance stored on a customer with the balance
// implied by its ledger records.
type Reconciliation struct {
	CustomerID string    `json:"customer_id"`
	Credits    int64     `json:"credits"`
	Debits     int64     `json:"debits"`
	VIPDebits  int64     `json:"vip_debits"`
	Expected   int64     `json:"expected"`
	Actual     int64     `json:"actual"`
	Consistent bool      `json:"consistent"`
	CheckedAt  time.Time `json:"checked_at"`
}
