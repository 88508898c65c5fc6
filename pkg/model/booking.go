package model

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
)

type Booking struct {
	ID                     string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CustomerID             string     `json:"customer_id" bson:"customer_id" validate:"required,mongodb"`
	CustomerName           string     `json:"customer_name" bson:"customer_name" validate:"required"`
	CustomerPhone          string     `json:"customer_phone" bson:"customer_phone"`
	ServiceID              string     `json:"service_id" bson:"service_id" validate:"required,mongodb"`
	ServiceName            string     `json:"service_name" bson:"service_name" validate:"required"`
	BookingDate            time.Time  `json:"booking_date" bson:"booking_date" validate:"required"`
	Duration               int        `json:"duration" bson:"duration" validate:"required,min=1,max=600"`
	MembershipType         string     `json:"membership_type" bson:"membership_type" validate:"required,oneof=regular vip"`
	UseSelfOil             bool       `json:"use_self_oil" bson:"use_self_oil"`
	ExtraOilFee            int64      `json:"extra_oil_fee" bson:"extra_oil_fee" validate:"min=0"`
	OriginalPrice          int64      `json:"original_price" bson:"original_price" validate:"min=0"`
	Price                  int64      `json:"price" bson:"price" validate:"min=0"`
	AdditionalServiceID    string     `json:"additional_service_id,omitempty" bson:"additional_service_id,omitempty" validate:"omitempty,mongodb"`
	AdditionalService      string     `json:"additional_service,omitempty" bson:"additional_service,omitempty"`
	AdditionalServicePrice int64      `json:"additional_service_price" bson:"additional_service_price" validate:"min=0"`
	TotalPrice             int64      `json:"total_price" bson:"total_price" validate:"min=0"`
	Status                 string     `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed"`
	PaymentStatus          string     `json:"payment_status" bson:"payment_status" validate:"required,oneof=unpaid paid"`
	PaymentMethod          string     `json:"payment_method,omitempty" bson:"payment_method,omitempty" validate:"omitempty,oneof=cash card deposit"`
	PaidAt                 *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	VisitID                string     `json:"visit_id,omitempty" bson:"visit_id,omitempty"`
	Notes                  string     `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	CreatedBy              string     `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt              time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}

type BookingRequest struct {
	CustomerID          string    `json:"customer_id" validate:"required,mongodb"`
	ServiceID           string    `json:"service_id" validate:"required,mongodb"`
	BookingDate         time.Time `json:"booking_date" validate:"required"`
	Duration            int       `json:"duration,omitempty" validate:"omitempty,min=1,max=600"`
	UseSelfOil          bool      `json:"use_self_oil"`
	ExtraOilFee         int64     `json:"extra_oil_fee" validate:"min=0"`
	AdditionalServiceID string    `json:"additional_service_id,omitempty" validate:"omitempty,mongodb"`
	Notes               string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type BookingUpdate struct {
	ServiceID           *string    `json:"service_id,omitempty" validate:"omitempty,mongodb"`
	BookingDate         *time.Time `json:"booking_date,omitempty" validate:"omitempty"`
	Duration            *int       `json:"duration,omitempty" validate:"omitempty,min=1,max=600"`
	UseSelfOil          *bool      `json:"use_self_oil,omitempty"`
	ExtraOilFee         *int64     `json:"extra_oil_fee,omitempty" validate:"omitempty,min=0"`
	AdditionalServiceID *string    `json:"additional_service_id,omitempty" validate:"omitempty"`
	Notes               *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type PaymentConfirmation struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card deposit"`
}

type StatusChange struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed"`
}
