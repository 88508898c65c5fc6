package model

import "time"

const DefaultVisitDuration = 60

type Visit struct {
	ID                     string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CustomerID             string    `json:"customer_id" bson:"customer_id" validate:"required,mongodb"`
	CustomerName           string    `json:"customer_name" bson:"customer_name" validate:"required"`
	ServiceID              string    `json:"service_id" bson:"service_id" validate:"required,mongodb"`
	ServiceName            string    `json:"service_name" bson:"service_name" validate:"required"`
	VisitDate              time.Time `json:"visit_date" bson:"visit_date" validate:"required"`
	Duration               int       `json:"duration" bson:"duration" validate:"required,min=1,max=600"`
	OriginalPrice          int64     `json:"original_price" bson:"original_price" validate:"min=0"`
	FinalPrice             int64     `json:"final_price" bson:"final_price" validate:"min=0"`
	MembershipType         string    `json:"membership_type" bson:"membership_type" validate:"required,oneof=regular vip"`
	Discount               float64   `json:"discount" bson:"discount" validate:"min=0"`
	UseSelfOil             bool      `json:"use_self_oil" bson:"use_self_oil"`
	ExtraOilFee            int64     `json:"extra_oil_fee" bson:"extra_oil_fee" validate:"min=0"`
	AdditionalService      string    `json:"additional_service,omitempty" bson:"additional_service,omitempty"`
	AdditionalServicePrice int64     `json:"additional_service_price" bson:"additional_service_price" validate:"min=0"`
	PaymentMethod          string    `json:"payment_method" bson:"payment_method" validate:"required,oneof=cash card deposit"`
	PaymentStatus          string    `json:"payment_status" bson:"payment_status" validate:"required,oneof=unpaid paid"`
	BookingID              string    `json:"booking_id,omitempty" bson:"booking_id,omitempty" validate:"omitempty,mongodb"`
	Notes                  string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	Operator               string    `json:"operator,omitempty" bson:"operator,omitempty"`
	CreatedAt              time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" bson:"updated_at"`
}

// Charge is the amount the customer pays for the visit, add-on included. It
// is what a deposit-paid visit debits and what revenue counts.
func (v *Visit) Charge() int64 {
	return v.FinalPrice + v.AdditionalServicePrice
}

func (v *Visit) PaidByDeposit() bool {
	return v.PaymentMethod == PaymentDeposit
}

// VisitRequest carries a checkout. Price fields are optional overrides; when
// absent the visit is priced from the catalog.
type VisitRequest struct {
	CustomerID          string     `json:"customer_id" validate:"required,mongodb"`
	ServiceID           string     `json:"service_id" validate:"required,mongodb"`
	VisitDate           *time.Time `json:"visit_date,omitempty"`
	Duration            int        `json:"duration,omitempty" validate:"omitempty,min=1,max=600"`
	UseSelfOil          bool       `json:"use_self_oil"`
	ExtraOilFee         int64      `json:"extra_oil_fee" validate:"min=0"`
	AdditionalServiceID string     `json:"additional_service_id,omitempty" validate:"omitempty,mongodb"`
	OriginalPrice       *int64     `json:"original_price,omitempty" validate:"omitempty,min=0"`
	FinalPrice          *int64     `json:"final_price,omitempty" validate:"omitempty,min=0"`
	PaymentMethod       string     `json:"payment_method,omitempty" validate:"omitempty,oneof=cash card deposit"`
	PaymentStatus       string     `json:"payment_status,omitempty" validate:"omitempty,oneof=unpaid paid"`
	BookingID           string     `json:"booking_id,omitempty" validate:"omitempty,mongodb"`
	Notes               string     `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type VisitUpdate struct {
	VisitDate     *time.Time `json:"visit_date,omitempty"`
	Duration      *int       `json:"duration,omitempty" validate:"omitempty,min=1,max=600"`
	FinalPrice    *int64     `json:"final_price,omitempty" validate:"omitempty,min=0"`
	PaymentMethod *string    `json:"payment_method,omitempty" validate:"omitempty,oneof=cash card deposit"`
	PaymentStatus *string    `json:"payment_status,omitempty" validate:"omitempty,oneof=unpaid paid"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type VisitStats struct {
	TotalVisits    int64            `json:"total_visits"`
	TodayVisits    int64            `json:"today_visits"`
	MonthVisits    int64            `json:"month_visits"`
	TotalRevenue   int64            `json:"total_revenue"`
	TodayRevenue   int64            `json:"today_revenue"`
	MonthRevenue   int64            `json:"month_revenue"`
	PaymentMethods map[string]int64 `json:"payment_methods"`
}

type CustomerVisitStats struct {
	CustomerID      string     `json:"customer_id"`
	TotalVisits     int        `json:"total_visits"`
	TotalSpent      int64      `json:"total_spent"`
	LastVisit       *time.Time `json:"last_visit,omitempty"`
	FavoriteService string     `json:"favorite_service,omitempty"`
}

// PaymentSummary totals the visits settled with one payment method.
type PaymentSummary struct {
	Method  string `json:"method" bson:"_id"`
	Visits  int64  `json:"visits" bson:"visits"`
	Revenue int64  `json:"revenue" bson:"revenue"`
}
